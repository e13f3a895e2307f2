package classify

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"text/tabwriter"
)

// ConfusionMatrix counts predictions (rows) against targets (columns).
type ConfusionMatrix struct {
	Labels []string
	Counts [][]int
	Sets   int

	index map[string]int
}

// NewConfusionMatrix returns an empty matrix over labels.
func NewConfusionMatrix(labels []string) *ConfusionMatrix {
	c := &ConfusionMatrix{
		Labels: append([]string(nil), labels...),
		Counts: make([][]int, len(labels)),
		index:  make(map[string]int, len(labels)),
	}
	for i, l := range labels {
		c.Counts[i] = make([]int, len(labels))
		c.index[l] = i
	}
	return c
}

// Add records one set of predictions. Labels not in the matrix are ignored.
func (c *ConfusionMatrix) Add(targets, predictions []string) {
	for i := range targets {
		t, okT := c.index[targets[i]]
		p, okP := c.index[predictions[i]]
		if okT && okP {
			c.Counts[p][t]++
		}
	}
	c.Sets++
}

// Total returns the number of recorded predictions.
func (c *ConfusionMatrix) Total() int {
	n := 0
	for _, row := range c.Counts {
		for _, v := range row {
			n += v
		}
	}
	return n
}

// Accuracy returns the fraction of correct predictions.
func (c *ConfusionMatrix) Accuracy() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	hits := 0
	for i := range c.Counts {
		hits += c.Counts[i][i]
	}
	return float64(hits) / float64(total)
}

// ClassStats holds one-vs-rest statistics of a single target.
type ClassStats struct {
	P, N, TP, TN, FP, FN int
	// PP and PN are the predicted positive and negative counts.
	PP, PN                       int
	PPV, NPV, TPR, SPC, FDR, MCC float64
	F1                           float64
}

// Stats computes one-vs-rest statistics for label index k.
func (c *ConfusionMatrix) Stats(k int) ClassStats {
	total := c.Total()

	var s ClassStats
	s.TP = c.Counts[k][k]
	for t := range c.Counts[k] {
		s.PP += c.Counts[k][t]
	}
	for p := range c.Counts {
		s.P += c.Counts[p][k]
	}
	s.FP = s.PP - s.TP
	s.FN = s.P - s.TP
	s.N = total - s.P
	s.PN = total - s.PP
	s.TN = s.N - s.FP

	s.PPV = ratio(s.TP, s.PP)
	s.NPV = ratio(s.TN, s.PN)
	s.TPR = ratio(s.TP, s.P)
	s.SPC = ratio(s.TN, s.N)
	s.FDR = ratio(s.FP, s.PP)
	s.F1 = ratio(2*s.TP, s.P+s.PP)
	s.MCC = float64(s.TP*s.TN-s.FP*s.FN) /
		math.Sqrt(float64(s.P)*float64(s.N)*float64(s.PP)*float64(s.PN))
	return s
}

func ratio(a, b int) float64 {
	return float64(a) / float64(b)
}

const legend = `Statistics computed in 1-vs-rest fashion per each target.
Abbreviations (for details see http://en.wikipedia.org/wiki/ROC_curve):
 TP : true positive (AKA hit)
 TN : true negative (AKA correct rejection)
 FP : false positive (AKA false alarm, Type I error)
 FN : false negative (AKA miss, Type II error)
 TPR: true positive rate (AKA hit rate, recall, sensitivity)
      TPR = TP / P = TP / (TP + FN)
 FPR: false positive rate (AKA false alarm rate, fall-out)
      FPR = FP / N = FP / (FP + TN)
 ACC: accuracy
      ACC = (TP + TN) / (P + N)
 SPC: specificity
      SPC = TN / (FP + TN) = 1 - FPR
 PPV: positive predictive value (AKA precision)
      PPV = TP / (TP + FP)
 NPV: negative predictive value
      NPV = TN / (TN + FN)
 FDR: false discovery rate
      FDR = FP / (FP + TP)
 MCC: Matthews Correlation Coefficient
      MCC = (TP*TN - FP*FN)/sqrt(P N P' N')
 F1 : F1 score
      F1 = 2TP / (P + P') = 2TP / (2TP + FP + FN)
`

// String renders the matrix, per-target statistics, summary and a legend.
func (c *ConfusionMatrix) String() string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)

	dashes := make([]string, len(c.Labels))
	for i, l := range c.Labels {
		dashes[i] = strings.Repeat("-", len(l))
	}

	fmt.Fprintf(w, "predictions\\targets\t%s\t\n", strings.Join(c.Labels, "\t"))
	fmt.Fprintf(w, "`------\t%s\tP'\tN'\tFP\tFN\tPPV\tNPV\tTPR\tSPC\tFDR\tMCC\tF1\t\n", strings.Join(dashes, "\t"))
	for k, l := range c.Labels {
		s := c.Stats(k)
		fmt.Fprintf(w, "%s\t", l)
		for _, v := range c.Counts[k] {
			fmt.Fprintf(w, "%d\t", v)
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
			s.PP, s.PN, s.FP, s.FN, s.PPV, s.NPV, s.TPR, s.SPC, s.FDR, s.MCC, s.F1)
	}

	fmt.Fprintf(w, "Per target:\t%s\t\n", strings.Join(dashes, "\t"))
	rows := []struct {
		name string
		get  func(ClassStats) int
	}{
		{"P", func(s ClassStats) int { return s.P }},
		{"N", func(s ClassStats) int { return s.N }},
		{"TP", func(s ClassStats) int { return s.TP }},
		{"TN", func(s ClassStats) int { return s.TN }},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t", r.name)
		for k := range c.Labels {
			fmt.Fprintf(w, "%d\t", r.get(c.Stats(k)))
		}
		fmt.Fprintln(w)
	}

	acc := c.Accuracy()
	fmt.Fprintf(w, "Summary \\ Means:\t\n")
	fmt.Fprintf(w, "ACC\t%.2f\t\n", acc)
	fmt.Fprintf(w, "ACC%%\t%.2f\t\n", 100*acc)
	fmt.Fprintf(w, "# of sets\t%d\t\n", c.Sets)
	w.Flush()

	buf.WriteString(legend)
	return buf.String()
}

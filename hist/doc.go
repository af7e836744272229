// Package hist provides weighted histograms that merge as accumulator
// leaves.
//
//	mass, _ := hist.NewRegular("mass", "m(μμ) [GeV]", 60, 60, 120)
//	h, _ := hist.New("Events", hist.NewStrCategory("dataset", "Dataset"), mass)
//	_ = h.Fill(map[string]string{"dataset": "DY"}, map[string][]float64{"mass": m}, w)
package hist

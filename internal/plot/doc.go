// Package plot renders fixation scanpaths and SMT velocity profiles, as
// PNG images through gonum/plot and as interactive HTML through go-echarts.
package plot

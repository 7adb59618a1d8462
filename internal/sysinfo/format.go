package sysinfo

import "fmt"

const (
	bytesPerGiB = 1024 * 1024 * 1024
	bytesPerGB  = 1000 * 1000 * 1000
	mhzPerGHz   = 1000.0
)

func formatGB(v float64) string {
	return fmt.Sprintf("%.2f GB", v)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f %%", v)
}

func formatGHz(mhz float64) string {
	return fmt.Sprintf("%.2f GHz", mhz/mhzPerGHz)
}

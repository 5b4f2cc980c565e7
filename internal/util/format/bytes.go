package format

import "fmt"

var byteUnits = [...]string{"KB", "MB", "GB", "TB"}

// HumanizeBytes renders a byte count with binary units, e.g. "1.5 MB".
func HumanizeBytes(b int64) string {
	if b < 1024 {
		return fmt.Sprintf("%d B", b)
	}
	v := float64(b) / 1024
	i := 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", v, byteUnits[i])
}

// HumanizeRate renders a transfer rate, e.g. "2.3 MB/s". Negative rates
// are treated as zero.
func HumanizeRate(bytesPerSec float64) string {
	if bytesPerSec < 0 {
		bytesPerSec = 0
	}
	return HumanizeBytes(int64(bytesPerSec)) + "/s"
}

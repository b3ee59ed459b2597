package download

import "github.com/dustin/go-humanize"

// FormatSpeed renders a transfer rate for display, e.g. "4.2 MB/s".
func FormatSpeed(bytesPerSec float64) string {
	return humanize.Bytes(uint64(bytesPerSec)) + "/s"
}

// FormatProgress renders "downloaded/total" for display, e.g. "12 MB/128 MB".
func FormatProgress(p Progress) string {
	return humanize.Bytes(uint64(p.DownloadedBytes)) + "/" + humanize.Bytes(uint64(p.TotalBytes))
}

package launch

import "fmt"

// FormatRemaining formats seconds as "MM:SS", or "H:MM:SS" from one hour.
func FormatRemaining(sec uint64) string {
	if sec < 3600 { //nolint:gomnd //...
		return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
	}

	return fmt.Sprintf("%d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

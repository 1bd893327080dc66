package classifier

import "strconv"

// RemoteChangeURL is a merge-request URL spotted in pane output, with the
// change iid parsed out of the URL path.
type RemoteChangeURL struct {
	IID int
	URL string
}

// ExtractURL scans capture for merge-request URLs and returns the last one
// by position, or ok=false when none is present. Only the MR shape
// (.../-/merge_requests/<iid>) counts; arbitrary URLs in agent output are
// not the agent's change and are ignored.
func ExtractURL(capture string) (RemoteChangeURL, bool) {
	clean := stripANSI(capture)

	var last RemoteChangeURL
	found := false
	for _, m := range mrURLPattern.FindAllStringSubmatch(clean, -1) {
		iid, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		last = RemoteChangeURL{IID: iid, URL: m[0]}
		found = true
	}
	return last, found
}

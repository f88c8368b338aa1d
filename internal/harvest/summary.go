// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"fmt"
	"io"
)

// Summary counts what a run did.
type Summary struct {
	Pages int

	// Seen is the number of records taken from result pages.
	Seen int

	// Rejected records did not pass the access filter.
	Rejected int

	// RunDuplicates repeated a record already handled in this run.
	RunDuplicates int

	Downloaded int
	Skipped    int
	Failed     int

	EmailsFound   int
	ExtractFailed int

	Mirrored     int
	MirrorFailed int

	Inserted      int
	Stored        int // already present in the store
	NotPersisted  int // no DOI, or no email when one is required
	PersistFailed int

	// NextCursor is the start record to resume from, nil when the result
	// set is exhausted.
	NextCursor *int

	// PageSize is the number of records per page on the wire; it converts
	// NextCursor to a page number.
	PageSize int

	Capped    bool
	Cancelled bool
}

// Processed counts records whose PDF is on disk after the run, whether
// downloaded now or earlier. The item cap applies to this count.
func (s Summary) Processed() int {
	return s.Downloaded + s.Skipped
}

// Total counts records that reached the downloader.
func (s Summary) Total() int {
	return s.Downloaded + s.Skipped + s.Failed
}

// NextPage returns the --start-page value that resumes the run, or 0 when
// there is nothing left. A cursor in the middle of a page resolves to that
// page.
func (s Summary) NextPage() int {
	if s.NextCursor == nil || s.PageSize <= 0 {
		return 0
	}
	return (*s.NextCursor-1)/s.PageSize + 1
}

// Write prints the summary in plain text.
func (s Summary) Write(w io.Writer) {
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		s.Downloaded, s.Skipped, s.Failed, s.Total())
	fmt.Fprintf(w, "Records: %d seen on %d page(s), %d not open access, %d repeated\n",
		s.Seen, s.Pages, s.Rejected, s.RunDuplicates)
	fmt.Fprintf(w, "Contacts: %d email(s) found, %d unreadable PDF(s)\n", s.EmailsFound, s.ExtractFailed)
	if s.Mirrored+s.MirrorFailed > 0 {
		fmt.Fprintf(w, "Mirror: %d uploaded, %d failed\n", s.Mirrored, s.MirrorFailed)
	}
	if s.Inserted+s.Stored+s.NotPersisted+s.PersistFailed > 0 {
		fmt.Fprintf(w, "Metadata: %d inserted, %d already stored, %d not persisted, %d failed\n",
			s.Inserted, s.Stored, s.NotPersisted, s.PersistFailed)
	}
	switch {
	case s.Cancelled && s.NextCursor != nil:
		fmt.Fprintf(w, "Interrupted; resume with --start-page %d (record %d)\n", s.NextPage(), *s.NextCursor)
	case s.NextCursor != nil:
		fmt.Fprintf(w, "More results available: --start-page %d (record %d)\n", s.NextPage(), *s.NextCursor)
	}
}

package metadata

import (
	"os"
	"path/filepath"
	"time"

	"github.com/teranos/mirror/errors"
)

// DirtyReason explains why a header must be parsed again
type DirtyReason string

const (
	ReasonRebuild         DirtyReason = "rebuild requested"
	ReasonArtifactMissing DirtyReason = "generated file missing"
	ReasonNew             DirtyReason = "no previous record"
	ReasonModified        DirtyReason = "modified since last generation"
	ReasonContentChanged  DirtyReason = "content fingerprint changed"
)

// CurrentHeader is a header found by discovery in this run
type CurrentHeader struct {
	Path      string // slash-separated, relative to the solution root
	ProjectID ProjectID
}

// DirtyHeader is a header queued for parsing
type DirtyHeader struct {
	Header *HeaderInfo
	Reason DirtyReason
}

// CheckResult is the outcome of an up-to-date check
type CheckResult struct {
	Dirty    []DirtyHeader
	Obsolete []*HeaderInfo
	UpToDate []*HeaderInfo

	// RemovedTypes are the types the dirty and obsolete headers owned before
	// the check dropped them
	RemovedTypes []TypeID
}

// DirtyHeaders returns the header records queued for parsing
func (r *CheckResult) DirtyHeaders() []*HeaderInfo {
	out := make([]*HeaderInfo, 0, len(r.Dirty))
	for _, d := range r.Dirty {
		out = append(out, d.Header)
	}
	return out
}

// CheckHeaders decides which of the current headers are stale.
//
// A header is dirty when its generated file is missing, when there is no record
// of it, when it was modified after the recorded time, or when its content
// fingerprint differs from the recorded one. force marks every header dirty.
//
// Dirty headers lose the types they owned and get a fresh record carrying the
// current modification time and fingerprint; the caller queues them for parsing.
// Headers recorded in the store but absent from current are purged together
// with their types and reported as obsolete.
func (s *Store) CheckHeaders(root string, current []CurrentHeader, force bool) (*CheckResult, error) {
	result := &CheckResult{}
	seen := make(map[HeaderID]bool, len(current))

	for _, c := range current {
		id := NewHeaderID(c.Path)
		seen[id] = true

		abs := filepath.Join(root, filepath.FromSlash(c.Path))
		info, err := os.Stat(abs)
		if err != nil {
			return nil, errors.Wrapf(errors.WrapIO(err, abs), "check header %s", c.Path)
		}
		checksum, err := Fingerprint(abs)
		if err != nil {
			return nil, errors.Wrapf(err, "fingerprint header %s", c.Path)
		}

		previous, known := s.headers[id]
		reason, dirty := s.dirtyReason(root, c.Path, previous, known, info.ModTime(), checksum, force)
		if !dirty {
			previous.ProjectID = c.ProjectID
			result.UpToDate = append(result.UpToDate, previous)
			continue
		}

		if known {
			result.RemovedTypes = append(result.RemovedTypes, previous.TypeIDs...)
			s.DeleteHeaderTypes(id)
		}
		fresh := &HeaderInfo{
			ID:        id,
			Path:      c.Path,
			ProjectID: c.ProjectID,
			ModTime:   info.ModTime(),
			Checksum:  checksum,
		}
		if known {
			fresh.PackageName = previous.PackageName
			fresh.IsDevOnly = previous.IsDevOnly
		}
		s.headers[id] = fresh
		result.Dirty = append(result.Dirty, DirtyHeader{Header: fresh, Reason: reason})
	}

	for _, h := range s.Headers() {
		if !seen[h.ID] {
			result.RemovedTypes = append(result.RemovedTypes, h.TypeIDs...)
			s.DeleteHeader(h.ID)
			result.Obsolete = append(result.Obsolete, h)
		}
	}

	return result, nil
}

func (s *Store) dirtyReason(root, path string, previous *HeaderInfo, known bool, modTime time.Time, checksum string, force bool) (DirtyReason, bool) {
	if force {
		return ReasonRebuild, true
	}
	generated := filepath.Join(root, filepath.FromSlash(GeneratedPath(path)))
	if _, err := os.Stat(generated); err != nil {
		return ReasonArtifactMissing, true
	}
	if !known {
		return ReasonNew, true
	}
	if modTime.UnixNano() > previous.ModTime.UnixNano() {
		return ReasonModified, true
	}
	if checksum != previous.Checksum {
		return ReasonContentChanged, true
	}
	return "", false
}

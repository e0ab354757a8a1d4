// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package lock enforces at-most-once execution via a persisted marker file.
//
// The marker's mere existence is the gate: a corrupt or unreadable marker
// still counts as locked. The program only ever creates the marker; deleting
// it is a manual operator override.
package lock

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"

	"go.astrophena.name/autorss/internal/atomicio"
)

// Marker is the persisted one-shot lock payload. Its content is
// informational; only its existence gates reruns.
type Marker struct {
	CreatedUTC string `json:"created_utc"`
	PostURL    string `json:"post_url"`
	Note       string `json:"note"`
}

const note = "One-shot lock. Delete this file if you are the author and want to rerun locally."

// Check reports whether the marker at path exists. When it does, createdUTC
// carries the original run's timestamp if it is still recoverable from the
// marker, and an empty string otherwise.
func Check(path string) (locked bool, createdUTC string, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, "", nil
		}
		// Unreadable marker still gates: existence is what matters.
		if _, statErr := os.Stat(path); statErr == nil {
			return true, "", nil
		}
		return false, "", err
	}

	var m Marker
	if err := json.Unmarshal(b, &m); err != nil {
		return true, "", nil
	}
	return true, m.CreatedUTC, nil
}

// Commit writes the marker at path, recording the published post URL and the
// current time. It is called exactly once, after a fully successful run.
func Commit(path, postURL string, now time.Time) error {
	m := Marker{
		CreatedUTC: now.UTC().Format(time.RFC3339),
		PostURL:    postURL,
		Note:       note,
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return atomicio.WriteFile(path, append(b, '\n'), 0o644)
}

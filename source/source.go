// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package source provides base tensors: in-memory tensors, tensors read
// from CSV files (loose or inside a zip archive), and lookup tables for
// attribute transforms.
package source

import (
	"archive/zip"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Opener opens a fresh reader over the same content every time it is
// called, so that sources can be streamed more than once.
type Opener interface {
	Open() (io.ReadCloser, error)
	String() string
}

// File opens a local file or, when the name starts with "http", fetches a
// URL.
type File string

func (f File) Open() (io.ReadCloser, error) {
	return openFileOrURL(string(f))
}

func (f File) String() string {
	return string(f)
}

func openFileOrURL(name string) (io.ReadCloser, error) {
	var content io.ReadCloser
	if strings.HasPrefix(name, "http") {
		resp, err := http.Get(name)
		if err != nil {
			return nil, errors.Wrap(err, "getting via http")
		}
		if resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, errors.Errorf("got status %d via http.Get", resp.StatusCode)
		}
		content = resp.Body
	} else {
		f, err := os.Open(name)
		if err != nil {
			return nil, errors.Wrap(err, "opening file")
		}
		content = f
	}
	return content, nil
}

// ArchiveMember opens one file inside a zip archive.
type ArchiveMember struct {
	Archive string
	Member  string
}

func (a ArchiveMember) Open() (io.ReadCloser, error) {
	zr, err := zip.OpenReader(a.Archive)
	if err != nil {
		return nil, errors.Wrap(err, "opening archive")
	}
	for _, f := range zr.File {
		if f.Name != a.Member {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			zr.Close()
			return nil, errors.Wrapf(err, "opening member '%s'", a.Member)
		}
		return &memberReader{ReadCloser: rc, archive: zr}, nil
	}
	zr.Close()
	return nil, errors.Errorf("archive has no member '%s'", a.Member)
}

func (a ArchiveMember) String() string {
	return a.Archive + ":" + a.Member
}

// Members lists the files in a zip archive.
func Members(archive string) ([]string, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, errors.Wrap(err, "opening archive")
	}
	defer zr.Close()
	out := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() {
			out = append(out, f.Name)
		}
	}
	return out, nil
}

// memberReader closes the archive along with the member.
type memberReader struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (m *memberReader) Close() error {
	err := m.ReadCloser.Close()
	if cerr := m.archive.Close(); err == nil {
		err = cerr
	}
	return err
}

// ParseMember interprets the text of a CSV field as a member of an axis:
// an integer, a floating point number, a boolean, an RFC 3339 time or, failing
// all of those, the text itself.
func ParseMember(s string) interface{} {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if isDecimal(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return s
}

// isDecimal reports whether s is spelled like a decimal number. ParseFloat
// also accepts words such as "NaN" and "Inf", which are left as text.
func isDecimal(s string) bool {
	digits := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits = true
		case r == '+', r == '-', r == '.', r == 'e', r == 'E':
		default:
			return false
		}
	}
	return digits
}

// Prometheus - Media Catalog Data Access and Caching Service
// Copyright 2026 Chapster87
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Chapster87/prometheus

package xc

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// FlexString decodes a JSON string or number as a string. XC panels are
// inconsistent about quoting ids.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// FlexInt decodes a JSON number, numeric string or null as an int.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*f = 0
			return nil
		}
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// Category is one entry of get_series_categories or get_vod_categories.
type Category struct {
	CategoryID   FlexString `json:"category_id"`
	CategoryName string     `json:"category_name"`
	ParentID     FlexInt    `json:"parent_id"`
}

// FindCategoryName returns the name of the category whose id matches, or nil
// when there is no match or categories is not a JSON array of categories.
func FindCategoryName(categories json.RawMessage, categoryID string) *string {
	var list []Category
	if err := json.Unmarshal(categories, &list); err != nil {
		return nil
	}
	for _, c := range list {
		if string(c.CategoryID) == categoryID {
			name := c.CategoryName
			return &name
		}
	}
	return nil
}

// UserInfo is the user_info block of an account lookup. Fields not listed
// here are kept in Raw and written back out unchanged.
type UserInfo struct {
	Auth     int
	Username string
	Status   string
	Raw      json.RawMessage
}

type userInfoFields struct {
	Auth     FlexInt `json:"auth"`
	Username string  `json:"username"`
	Status   string  `json:"status"`
}

func (u *UserInfo) UnmarshalJSON(b []byte) error {
	var f userInfoFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	u.Auth = int(f.Auth)
	u.Username = f.Username
	u.Status = f.Status
	u.Raw = append(json.RawMessage(nil), b...)
	return nil
}

func (u UserInfo) MarshalJSON() ([]byte, error) {
	if len(u.Raw) > 0 {
		return u.Raw, nil
	}
	return json.Marshal(userInfoFields{Auth: FlexInt(u.Auth), Username: u.Username, Status: u.Status})
}

type accountResponse struct {
	UserInfo *UserInfo `json:"user_info"`
}

// VODInfo is the get_vod_info payload, kept verbatim.
type VODInfo json.RawMessage

func (v VODInfo) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return v, nil
}

func (v *VODInfo) UnmarshalJSON(b []byte) error {
	*v = append((*v)[:0], b...)
	return nil
}

// TMDBID returns info.tmdb_id as a trimmed string, or "" when it is absent.
// Both numeric and string ids are accepted.
func (v VODInfo) TMDBID() string {
	var payload struct {
		Info struct {
			TMDBID FlexString `json:"tmdb_id"`
		} `json:"info"`
	}
	if err := json.Unmarshal(v, &payload); err != nil {
		return ""
	}
	id := strings.TrimSpace(string(payload.Info.TMDBID))
	if id == "0" {
		return ""
	}
	return id
}

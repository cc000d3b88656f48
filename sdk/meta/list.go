package meta

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// ListMeta is the paging information that accompanies a page of results.
type ListMeta struct {
	// Total is the total number of matching items known to the API.
	Total int `json:"total"`
}

// UnmarshalList decodes a list response that the API may send either as a
// bare JSON array or as an object of the form {"items": [...], "total": n}.
// Either shape is normalized into items and ListMeta. For a bare array, Total
// is the length of the array. For an object with no total, Total is 0.
func UnmarshalList(data []byte, items interface{}) (ListMeta, error) {
	listMeta := ListMeta{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return listMeta, nil
	}
	if trimmed[0] == '[' {
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return listMeta, errors.Wrap(err, "error unmarshaling list")
		}
		if err := json.Unmarshal(trimmed, items); err != nil {
			return listMeta, errors.Wrap(err, "error unmarshaling list items")
		}
		listMeta.Total = len(raw)
		return listMeta, nil
	}
	page := struct {
		Items json.RawMessage `json:"items"`
		Total *int            `json:"total"`
	}{}
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return listMeta, errors.Wrap(err, "error unmarshaling paged list")
	}
	if len(page.Items) > 0 && !bytes.Equal(page.Items, []byte("null")) {
		if err := json.Unmarshal(page.Items, items); err != nil {
			return listMeta, errors.Wrap(err, "error unmarshaling list items")
		}
	}
	if page.Total != nil {
		listMeta.Total = *page.Total
	}
	return listMeta, nil
}

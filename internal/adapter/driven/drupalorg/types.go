package drupalorg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ericfisherdev/contribtracker/internal/domain/model"
)

// flexInt decodes integers the API sends either as JSON numbers or as
// numeric strings. Empty values decode to zero.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	if isEmptyField(data) {
		*f = 0
		return nil
	}
	data = bytes.Trim(data, `"`)
	if len(data) == 0 {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("parse integer %q: %w", data, err)
	}
	*f = flexInt(n)
	return nil
}

func (f flexInt) time() time.Time {
	if f == 0 {
		return time.Time{}
	}
	return time.Unix(int64(f), 0).UTC()
}

// isEmptyField reports whether a field holds no value. The API renders empty
// fields as null or as an empty array instead of omitting them.
func isEmptyField(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || string(trimmed) == "null" || trimmed[0] == '['
}

// entityRef is a reference to another entity.
type entityRef struct {
	ID  flexInt `json:"id"`
	URI string  `json:"uri"`
}

func (r *entityRef) UnmarshalJSON(data []byte) error {
	if isEmptyField(data) {
		*r = entityRef{}
		return nil
	}
	type plain entityRef
	return json.Unmarshal(data, (*plain)(r))
}

// textField is a formatted text field.
type textField struct {
	Value string `json:"value"`
}

func (t *textField) UnmarshalJSON(data []byte) error {
	if isEmptyField(data) {
		*t = textField{}
		return nil
	}
	type plain textField
	return json.Unmarshal(data, (*plain)(t))
}

type issueFileJSON struct {
	File entityRef `json:"file"`
}

type nodeJSON struct {
	NID         flexInt         `json:"nid"`
	URL         string          `json:"url"`
	Title       string          `json:"title"`
	Type        string          `json:"type"`
	Created     flexInt         `json:"created"`
	Changed     flexInt         `json:"changed"`
	Project     entityRef       `json:"field_project"`
	IssueStatus flexInt         `json:"field_issue_status"`
	IssueFiles  []issueFileJSON `json:"field_issue_files"`
}

func (n nodeJSON) toModel() *model.Node {
	node := &model.Node{
		ID:         int64(n.NID),
		URL:        n.URL,
		Title:      n.Title,
		Type:       n.Type,
		ProjectID:  int64(n.Project.ID),
		StatusCode: int(n.IssueStatus),
		CreatedAt:  n.Created.time(),
		ChangedAt:  n.Changed.time(),
	}
	for _, f := range n.IssueFiles {
		if f.File.ID != 0 {
			node.FileIDs = append(node.FileIDs, int64(f.File.ID))
		}
	}
	return node
}

type fileJSON struct {
	FID       flexInt `json:"fid"`
	Name      string  `json:"name"`
	URL       string  `json:"url"`
	MIME      string  `json:"mime"`
	Timestamp flexInt `json:"timestamp"`
}

func (f fileJSON) toModel() *model.File {
	return &model.File{
		ID:        int64(f.FID),
		Name:      f.Name,
		URL:       f.URL,
		MIME:      f.MIME,
		Timestamp: f.Timestamp.time(),
	}
}

type commentJSON struct {
	CID     flexInt   `json:"cid"`
	URL     string    `json:"url"`
	Node    entityRef `json:"node"`
	Author  entityRef `json:"author"`
	Created flexInt   `json:"created"`
	Body    textField `json:"comment_body"`
}

func (c commentJSON) toModel() model.Comment {
	return model.Comment{
		ID:        int64(c.CID),
		URL:       c.URL,
		IssueID:   int64(c.Node.ID),
		AuthorID:  int64(c.Author.ID),
		CreatedAt: c.Created.time(),
		Body:      c.Body.Value,
	}
}

type commentListJSON struct {
	List []commentJSON `json:"list"`
	Next string        `json:"next"`
}

type userJSON struct {
	UID  flexInt `json:"uid"`
	Name string  `json:"name"`
}

type userListJSON struct {
	List []userJSON `json:"list"`
}

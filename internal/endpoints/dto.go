package endpoints

import "github.com/danij/Forum-sub001/internal/entities"

// The DTOs below are the JSON-facing projections of the entity graph.
// Entities reference each other by idgen.ID (§9 "addressed by stable
// handles"); these flatten every id to its string form and drop
// internal-only fields (weak back-reference slices, vote maps) that §6.2's
// route table does not expose directly.

type userDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Title        string `json:"title,omitempty"`
	Signature    string `json:"signature,omitempty"`
	MessageCount int    `json:"messageCount"`
	ThreadCount  int    `json:"threadCount"`
	Created      int64  `json:"created"`
	LastSeen     int64  `json:"lastSeen"`
}

func newUserDTO(u *entities.User) userDTO {
	return userDTO{
		ID:           u.ID.String(),
		Name:         u.Name,
		Title:        u.Title,
		Signature:    u.Signature,
		MessageCount: u.MessageCount,
		ThreadCount:  u.ThreadCount,
		Created:      int64(u.Created),
		LastSeen:     int64(u.LastSeen),
	}
}

func newUserDTOs(in []*entities.User) []userDTO {
	out := make([]userDTO, len(in))
	for i, u := range in {
		out[i] = newUserDTO(u)
	}
	return out
}

type threadDTO struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	PinDisplayOrder      int      `json:"pinDisplayOrder"`
	Approved             bool     `json:"approved"`
	CreatedBy            string   `json:"createdBy"`
	MessageCount         int      `json:"messageCount"`
	Visited              uint64   `json:"visited"`
	Created              int64    `json:"created"`
	LatestMessageCreated int64    `json:"latestMessageCreated"`
	Tags                 []string `json:"tags"`
}

func newThreadDTO(t *entities.DiscussionThread) threadDTO {
	tags := make([]string, 0, len(t.Tags))
	for id := range t.Tags {
		tags = append(tags, id.String())
	}
	return threadDTO{
		ID:                   t.ID.String(),
		Name:                 t.Name,
		PinDisplayOrder:      t.PinDisplayOrder,
		Approved:             t.Approved,
		CreatedBy:            t.CreatedBy.String(),
		MessageCount:         t.MessageCount,
		Visited:              t.Visited,
		Created:              int64(t.Created),
		LatestMessageCreated: int64(t.LatestMessageCreated),
		Tags:                 tags,
	}
}

func newThreadDTOs(in []*entities.DiscussionThread) []threadDTO {
	out := make([]threadDTO, len(in))
	for i, t := range in {
		out[i] = newThreadDTO(t)
	}
	return out
}

type messageDTO struct {
	ID           string `json:"id"`
	ParentThread string `json:"parentThread"`
	CreatedBy    string `json:"createdBy"`
	Approved     bool   `json:"approved"`
	Content      string `json:"content,omitempty"`
	UpVotes      int    `json:"upVotes"`
	DownVotes    int    `json:"downVotes"`
	CommentCount int    `json:"commentCount"`
	Created      int64  `json:"created"`
}

func newMessageDTO(m *entities.DiscussionThreadMessage) messageDTO {
	up, down := 0, 0
	for _, v := range m.Votes {
		if v.Value > 0 {
			up++
		} else {
			down++
		}
	}
	dto := messageDTO{
		ID:           m.ID.String(),
		ParentThread: m.ParentThread.String(),
		CreatedBy:    m.CreatedBy.String(),
		Approved:     m.Approved,
		UpVotes:      up,
		DownVotes:    down,
		CommentCount: len(m.Comments),
		Created:      int64(m.Created),
	}
	if m.Content.Kind == entities.ContentInline {
		dto.Content = string(m.Content.Inline)
	}
	return dto
}

func newMessageDTOs(in []*entities.DiscussionThreadMessage) []messageDTO {
	out := make([]messageDTO, len(in))
	for i, m := range in {
		out[i] = newMessageDTO(m)
	}
	return out
}

type commentDTO struct {
	ID            string `json:"id"`
	Content       string `json:"content"`
	Solved        bool   `json:"solved"`
	CreatedBy     string `json:"createdBy"`
	ParentMessage string `json:"parentMessage"`
	Created       int64  `json:"created"`
}

func newCommentDTO(c *entities.MessageComment) commentDTO {
	return commentDTO{
		ID:            c.ID.String(),
		Content:       c.Content,
		Solved:        c.Solved,
		CreatedBy:     c.CreatedBy.String(),
		ParentMessage: c.ParentMessage.String(),
		Created:       int64(c.Created),
	}
}

func newCommentDTOs(in []*entities.MessageComment) []commentDTO {
	out := make([]commentDTO, len(in))
	for i, c := range in {
		out[i] = newCommentDTO(c)
	}
	return out
}

type tagDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ThreadCount  int    `json:"threadCount"`
	MessageCount int    `json:"messageCount"`
}

func newTagDTO(t *entities.DiscussionTag) tagDTO {
	return tagDTO{ID: t.ID.String(), Name: t.Name, ThreadCount: t.ThreadCount, MessageCount: t.MessageCount}
}

func newTagDTOs(in []*entities.DiscussionTag) []tagDTO {
	out := make([]tagDTO, len(in))
	for i, t := range in {
		out[i] = newTagDTO(t)
	}
	return out
}

type categoryDTO struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Parent       string   `json:"parent,omitempty"`
	Children     []string `json:"children"`
	DisplayOrder int      `json:"displayOrder"`
	ThreadCount  int      `json:"threadCount"`
	MessageCount int      `json:"messageCount"`
}

func newCategoryDTO(c *entities.DiscussionCategory) categoryDTO {
	children := make([]string, len(c.Children))
	for i, id := range c.Children {
		children[i] = id.String()
	}
	parent := ""
	if !c.Parent.IsZero() {
		parent = c.Parent.String()
	}
	return categoryDTO{
		ID:           c.ID.String(),
		Name:         c.Name,
		Description:  c.Description,
		Parent:       parent,
		Children:     children,
		DisplayOrder: c.DisplayOrder,
		ThreadCount:  c.ThreadCount,
		MessageCount: c.MessageCount,
	}
}

func newCategoryDTOs(in []*entities.DiscussionCategory) []categoryDTO {
	out := make([]categoryDTO, len(in))
	for i, c := range in {
		out[i] = newCategoryDTO(c)
	}
	return out
}

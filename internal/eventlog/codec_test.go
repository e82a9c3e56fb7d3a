package eventlog

import (
	"bytes"
	"testing"

	"github.com/danij/Forum-sub001/internal/entities"
	"github.com/danij/Forum-sub001/internal/idgen"
	"github.com/danij/Forum-sub001/internal/store"
	"github.com/stretchr/testify/require"
)

// §6.1 requires both the inline (v1) and mapped-file (v2) storage variants
// of ADD_NEW_DISCUSSION_THREAD_MESSAGE to import successfully.
func TestAddMessageRoundTripsBothVersions(t *testing.T) {
	col := store.NewCollection()
	limits := store.DefaultLimits()
	repos := &Repositories{
		Users:      store.NewUserRepository(col, &limits),
		Threads:    store.NewThreadRepository(col, &limits),
		Messages:   store.NewMessageRepository(col, &limits),
		Comments:   store.NewCommentRepository(col, &limits),
		Tags:       store.NewTagRepository(col, &limits),
		Categories: store.NewCategoryRepository(col, &limits),
		Collection: col,
	}
	im := NewImporter(ImporterConfig{}, repos, nil)

	threadID := idgen.NewID()
	ctx := store.ObserverContext{CurrentTime: idgen.Timestamp(1000)}

	inlineMsg := &entities.DiscussionThreadMessage{
		Base:         entities.Base{ID: idgen.NewID()},
		ParentThread: threadID,
		Content:      entities.MessageContent{Kind: entities.ContentInline, Inline: []byte("hello")},
	}
	version := addMessageVersion(store.WriteEvent{Type: store.EventAddMessage, Payload: inlineMsg})
	require.Equal(t, uint16(1), version)

	blob, err := EncodeRecord(store.WriteEvent{Type: store.EventAddMessage, Ctx: ctx, Payload: inlineMsg})
	require.NoError(t, err)
	framedBody, err := decodeFrame(bytes.NewReader(blob), true)
	require.NoError(t, err)
	require.NoError(t, im.applyOne(framedBody, map[string]uint32{}, map[string]idgen.Timestamp{}))

	mappedMsg := &entities.DiscussionThreadMessage{
		Base:         entities.Base{ID: idgen.NewID()},
		ParentThread: threadID,
		Content:      entities.MessageContent{Kind: entities.ContentMapped, Size: 42, Offset: 4096},
	}
	version = addMessageVersion(store.WriteEvent{Type: store.EventAddMessage, Payload: mappedMsg})
	require.Equal(t, uint16(2), version)

	blob, err = EncodeRecord(store.WriteEvent{Type: store.EventAddMessage, Ctx: ctx, Payload: mappedMsg})
	require.NoError(t, err)
	framedBody, err = decodeFrame(bytes.NewReader(blob), true)
	require.NoError(t, err)
	require.NoError(t, im.applyOne(framedBody, map[string]uint32{}, map[string]idgen.Timestamp{}))
}

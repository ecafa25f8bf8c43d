package chats_test

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tg-scheduler/internal/domain/chats"
	"tg-scheduler/internal/infra/pr"
)

func TestMain(m *testing.M) {
	pr.SetOutput(io.Discard, io.Discard)
	os.Exit(m.Run())
}

// scriptedPrompter отдаёт заранее заданные строки; после них — io.EOF.
type scriptedPrompter struct {
	lines   []string
	prompts []string
}

func (p *scriptedPrompter) ReadLine(_ context.Context, prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

type fakeSource struct {
	dialogs    []chats.Dialog
	dialogsErr error
	topics     []chats.Topic
	topicsErr  error

	topicCalls  int
	topicOffset time.Time
	topicLimit  int
}

func (s *fakeSource) Dialogs(context.Context) ([]chats.Dialog, error) {
	return s.dialogs, s.dialogsErr
}

func (s *fakeSource) Topics(_ context.Context, _ chats.Dialog, offsetDate time.Time, limit int) ([]chats.Topic, error) {
	s.topicCalls++
	s.topicOffset = offsetDate
	s.topicLimit = limit
	return s.topics, s.topicsErr
}

var (
	fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	alice    = chats.Dialog{Name: "Alice", Kind: chats.KindUser, ID: 1}
	group    = chats.Dialog{Name: "Group", Kind: chats.KindChat, ID: 2}
	forum    = chats.Dialog{Name: "Forum", Kind: chats.KindChannel, ID: 3, AccessHash: 33, Forum: true}
)

func newSelector(src chats.Source, in chats.Prompter) *chats.Selector {
	return chats.NewSelector(src, in, func() time.Time { return fixedNow }, 100)
}

func TestSelect_RepromptsUntilValidIndex(t *testing.T) {
	t.Parallel()

	src := &fakeSource{dialogs: []chats.Dialog{alice, group}}
	in := &scriptedPrompter{lines: []string{"abc", "0", "3", " 2 "}}

	dest, ok, err := newSelector(src, in).Select(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, chats.Destination{Dialog: group}, dest)
	assert.False(t, dest.HasTopic())
	assert.Len(t, in.prompts, 4)
	assert.Zero(t, src.topicCalls)
}

func TestSelect_ForumTopic(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		dialogs: []chats.Dialog{alice, forum},
		topics:  []chats.Topic{{ID: 1, Title: "General"}, {ID: 77, Title: "News"}},
	}
	in := &scriptedPrompter{lines: []string{"2", "5", "2"}}

	dest, ok, err := newSelector(src, in).Select(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, forum, dest.Dialog)
	assert.Equal(t, 77, dest.TopicID)
	assert.Equal(t, fixedNow, src.topicOffset)
	assert.Equal(t, 100, src.topicLimit)
}

func TestSelect_TopicFailureFallsBackToDialog(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		src  *fakeSource
	}{
		{name: "fetchError", src: &fakeSource{dialogs: []chats.Dialog{forum}, topicsErr: errors.New("CHANNEL_INVALID")}},
		{name: "noTopics", src: &fakeSource{dialogs: []chats.Dialog{forum}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			in := &scriptedPrompter{lines: []string{"1"}}
			dest, ok, err := newSelector(tc.src, in).Select(context.Background())
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, chats.Destination{Dialog: forum}, dest)
			assert.Len(t, in.prompts, 1, "no topic prompt expected")
		})
	}
}

func TestSelect_DialogFailureMeansNoChat(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		src  *fakeSource
	}{
		{name: "fetchError", src: &fakeSource{dialogsErr: errors.New("network down")}},
		{name: "empty", src: &fakeSource{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			in := &scriptedPrompter{}
			_, ok, err := newSelector(tc.src, in).Select(context.Background())
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Empty(t, in.prompts)
		})
	}
}

func TestSelect_InterruptedInput(t *testing.T) {
	t.Parallel()

	src := &fakeSource{dialogs: []chats.Dialog{alice}}
	in := &scriptedPrompter{lines: []string{"nope"}}

	_, ok, err := newSelector(src, in).Select(context.Background())
	require.ErrorIs(t, err, io.EOF)
	assert.False(t, ok)
}

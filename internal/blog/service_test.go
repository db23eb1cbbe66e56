// AngelaMos | 2026
// service_test.go

package blog

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/bloghub/internal/access"
	"github.com/carterperez-dev/bloghub/internal/core"
	"github.com/carterperez-dev/bloghub/internal/summary"
	"github.com/carterperez-dev/bloghub/internal/user"
)

type fakeRepo struct {
	blogs    map[string]*Blog
	counts   map[string]int
	pdfs     map[string]PDFInfo
	calls    map[string]int
	lastList ListBlogsParams
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		blogs:  map[string]*Blog{},
		counts: map[string]int{},
		pdfs:   map[string]PDFInfo{},
		calls:  map[string]int{},
	}
}

func (f *fakeRepo) Create(_ context.Context, b *Blog) error {
	f.calls["Create"]++
	cp := *b
	f.blogs[b.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Blog, error) {
	b, ok := f.blogs[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeRepo) Update(_ context.Context, b *Blog) error {
	f.calls["Update"]++
	cp := *b
	f.blogs[b.ID] = &cp
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	f.calls["Delete"]++
	delete(f.blogs, id)
	return nil
}

func (f *fakeRepo) List(_ context.Context, params ListBlogsParams) ([]Blog, int, error) {
	f.lastList = params
	out := make([]Blog, 0, len(f.blogs))
	for _, id := range []string{"b1", "b2", "b3"} {
		if b, ok := f.blogs[id]; ok {
			out = append(out, *b)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) CommentCounts(_ context.Context, ids []string) (map[string]int, error) {
	f.calls["CommentCounts"]++
	return f.counts, nil
}

func (f *fakeRepo) PDFInfo(_ context.Context, ids []string) (map[string]PDFInfo, error) {
	f.calls["PDFInfo"]++
	return f.pdfs, nil
}

func (f *fakeRepo) Count(context.Context) (int, error) {
	return len(f.blogs), nil
}

type authorStub struct {
	calls   int
	authors map[string]user.Author
}

func (a *authorStub) Authors(_ context.Context, ids []string) (map[string]user.Author, error) {
	a.calls++
	out := map[string]user.Author{}
	for _, id := range ids {
		if au, ok := a.authors[id]; ok {
			out[id] = au
		}
	}
	return out, nil
}

type countingSummarizer struct {
	calls int
}

func (c *countingSummarizer) Summarize(_ context.Context, text string) (string, error) {
	c.calls++
	return "summary of " + text, nil
}

var (
	adminActor  = &access.Principal{SubjectID: "admin-1", Role: access.RoleAdmin}
	readerActor = &access.Principal{SubjectID: "user-1", Role: "user"}
)

func newTestService(repo *fakeRepo, sum *countingSummarizer) (*Service, *authorStub) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authors := &authorStub{authors: map[string]user.Author{
		"admin-1": {ID: "admin-1", Name: "Ada", ProfileImageURL: user.DefaultProfileImage},
	}}
	return NewService(repo, authors, summary.NewGenerator(sum, logger), logger), authors
}

func TestCreateRequiresAdmin(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, &countingSummarizer{})

	_, err := svc.Create(context.Background(), readerActor, CreateBlogRequest{
		Title:   "Hello",
		Content: "body",
	})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Create(context.Background(), nil, CreateBlogRequest{Title: "Hello", Content: "body"})
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	assert.Zero(t, repo.calls["Create"])
}

func TestCreateSummarizesAndNormalizesTags(t *testing.T) {
	repo := newFakeRepo()
	sum := &countingSummarizer{}
	svc, _ := newTestService(repo, sum)
	audio := "  "

	resp, err := svc.Create(context.Background(), adminActor, CreateBlogRequest{
		Title:    "  Hello  ",
		Content:  "body",
		Tags:     []string{"Go", " go ", "Web", ""},
		AudioURL: &audio,
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello", resp.Title)
	assert.Equal(t, []string{"go", "web"}, resp.Tags)
	assert.Equal(t, "summary of body", resp.Summary)
	assert.Nil(t, resp.AudioURL)
	assert.False(t, resp.HasAudio)
	assert.Equal(t, "Ada", resp.Author.Name)
	assert.Equal(t, 1, sum.calls)
}

func TestBlankTitleOrContentRejected(t *testing.T) {
	repo := newFakeRepo()
	repo.blogs["b1"] = &Blog{ID: "b1", Title: "T", Content: "C", AuthorID: "admin-1"}
	sum := &countingSummarizer{}
	svc, _ := newTestService(repo, sum)

	_, err := svc.Create(context.Background(), adminActor, CreateBlogRequest{Title: "   ", Content: "body"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Equal(t, "title is required", core.ToAppError(err, "blog").Message)

	_, err = svc.Create(context.Background(), adminActor, CreateBlogRequest{Title: "T", Content: "\n\t "})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	blank := "  "
	_, err = svc.Update(context.Background(), adminActor, "b1", UpdateBlogRequest{Title: &blank})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	_, err = svc.Update(context.Background(), adminActor, "b1", UpdateBlogRequest{Content: &blank})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	assert.Zero(t, repo.calls["Create"])
	assert.Zero(t, repo.calls["Update"])
	assert.Equal(t, "T", repo.blogs["b1"].Title)
	assert.Zero(t, sum.calls)
}

func TestUpdateRegeneratesOnlyOnContentChange(t *testing.T) {
	repo := newFakeRepo()
	repo.blogs["b1"] = &Blog{ID: "b1", Title: "T", Content: "same", AuthorID: "admin-1", Summary: "kept"}
	sum := &countingSummarizer{}
	svc, _ := newTestService(repo, sum)

	title := "New title"
	same := "same"
	resp, err := svc.Update(context.Background(), adminActor, "b1", UpdateBlogRequest{
		Title:   &title,
		Content: &same,
	})
	require.NoError(t, err)
	assert.Equal(t, "kept", resp.Summary)
	assert.Zero(t, sum.calls)

	changed := "different"
	resp, err = svc.Update(context.Background(), adminActor, "b1", UpdateBlogRequest{Content: &changed})
	require.NoError(t, err)
	assert.Equal(t, "summary of different", resp.Summary)
	assert.Equal(t, "New title", resp.Title)
	assert.Equal(t, 1, sum.calls)
}

func TestListAssemblesInBatches(t *testing.T) {
	repo := newFakeRepo()
	repo.blogs["b1"] = &Blog{ID: "b1", AuthorID: "admin-1"}
	repo.blogs["b2"] = &Blog{ID: "b2", AuthorID: "admin-1"}
	repo.blogs["b3"] = &Blog{ID: "b3", AuthorID: "gone"}
	repo.counts["b1"] = 2
	paidPrice := core.Cents(999)
	repo.pdfs["b1"] = PDFInfo{BlogID: "b1", PDFID: "p1", IsPaid: true, PriceCents: &paidPrice}
	repo.pdfs["b2"] = PDFInfo{BlogID: "b2", PDFID: "p2", IsPaid: false}

	svc, authors := newTestService(repo, &countingSummarizer{})

	out, total, err := svc.List(context.Background(), ListBlogsParams{PageSize: 500})

	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, out, 3)
	assert.Equal(t, 100, repo.lastList.PageSize)

	assert.Equal(t, 1, authors.calls)
	assert.Equal(t, 1, repo.calls["CommentCounts"])
	assert.Equal(t, 1, repo.calls["PDFInfo"])

	assert.Equal(t, 2, out[0].CommentCount)
	assert.True(t, out[0].HasPaidPDF)
	require.NotNil(t, out[0].PDFPrice)
	assert.InDelta(t, 9.99, *out[0].PDFPrice, 0.0001)
	assert.Equal(t, "p1", *out[0].PDFID)

	assert.False(t, out[1].HasPaidPDF)
	assert.Nil(t, out[1].PDFPrice)
	assert.Equal(t, "p2", *out[1].PDFID)

	assert.Nil(t, out[2].PDFID)
	assert.Equal(t, "gone", out[2].Author.ID)
	assert.Equal(t, user.DefaultProfileImage, out[2].Author.ProfileImageURL)
	assert.Equal(t, []string{}, out[2].Tags)
}

func TestDeleteRequiresAdmin(t *testing.T) {
	repo := newFakeRepo()
	repo.blogs["b1"] = &Blog{ID: "b1"}
	svc, _ := newTestService(repo, &countingSummarizer{})

	assert.ErrorIs(t, svc.Delete(context.Background(), readerActor, "b1"), core.ErrForbidden)
	require.NoError(t, svc.Delete(context.Background(), adminActor, "b1"))
	assert.Equal(t, 1, repo.calls["Delete"])
}

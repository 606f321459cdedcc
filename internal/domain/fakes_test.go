package domain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Vovarama1992/voice_posts/internal/apperr"
	"github.com/Vovarama1992/voice_posts/internal/ports"
	"github.com/Vovarama1992/voice_posts/internal/speech"
)

// memRepo: PostRepo в памяти; IncrementCommentCount под мьютексом, как UPDATE в Postgres
type memRepo struct {
	mu       sync.Mutex
	posts    map[string]*ports.Post
	comments map[string]ports.Comment
	after    *time.Time
	err      error
}

func newMemRepo() *memRepo {
	return &memRepo{posts: map[string]*ports.Post{}, comments: map[string]ports.Comment{}}
}

func postKey(owner, post string) string { return owner + "/" + post }

func (r *memRepo) ListSortedByTime(_ context.Context, after *time.Time) ([]ports.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.after = after
	if r.err != nil {
		return nil, apperr.Store("list posts", r.err)
	}
	out := []ports.Post{}
	for _, p := range r.posts {
		if after == nil || p.Time.After(*after) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	return out, nil
}

func (r *memRepo) ListByOwner(_ context.Context, owner string) ([]ports.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, apperr.Store("list posts by owner", r.err)
	}
	out := []ports.Post{}
	for _, p := range r.posts {
		if p.OwnerID == owner {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memRepo) CreatePost(_ context.Context, p ports.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return apperr.Store("create post", r.err)
	}
	r.posts[postKey(p.OwnerID, p.PostID)] = &p
	return nil
}

func (r *memRepo) CreateComment(_ context.Context, c ports.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return apperr.Store("create comment", r.err)
	}
	if _, ok := r.posts[postKey(c.OwnerID, c.PostID)]; !ok {
		return apperr.Store("create comment", apperr.NotFound("post "+postKey(c.OwnerID, c.PostID)))
	}
	r.comments[postKey(c.OwnerID, c.PostID)+"/"+c.CommentID] = c
	return nil
}

func (r *memRepo) DeleteComment(_ context.Context, owner, post, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := postKey(owner, post) + "/" + id
	if _, ok := r.comments[k]; !ok {
		return apperr.Store("delete comment", apperr.NotFound("comment "+k))
	}
	delete(r.comments, k)
	return nil
}

func (r *memRepo) IncrementCommentCount(_ context.Context, owner, post string, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return apperr.Store("increment comment count", r.err)
	}
	if p, ok := r.posts[postKey(owner, post)]; ok {
		p.CommentCount += delta
	}
	return nil
}

func (r *memRepo) count(owner, post string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.posts[postKey(owner, post)].CommentCount
}

type recordingNotifier struct {
	mu      sync.Mutex
	sources []string
}

func (n *recordingNotifier) Notify(_ context.Context, source string, _ error, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sources = append(n.sources, source)
	return nil
}

// fakeStorage: S3 на локальной директории
type fakeStorage struct {
	objects     map[string][]byte
	uploaded    map[string]string // key → content type
	downloadErr error
	uploadErr   error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, uploaded: map[string]string{}}
}

func (f *fakeStorage) Download(_ context.Context, key, localPath string) (int64, error) {
	if f.downloadErr != nil {
		return 0, f.downloadErr
	}
	b, ok := f.objects[key]
	if !ok {
		return 0, errors.New("NoSuchKey")
	}
	return int64(len(b)), os.WriteFile(localPath, b, 0o600)
}

func (f *fakeStorage) UploadFile(_ context.Context, key, localPath, contentType string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	b, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	f.objects[key] = b
	f.uploaded[key] = contentType
	return nil
}

func (f *fakeStorage) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.example.com/bucket/" + key + "?X-Amz-Signature=abc", nil
}

type stagingConverter struct {
	dir   string
	err   error
	calls int
}

func (c *stagingConverter) Convert(_ context.Context, src, codec string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	b, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(c.dir, "out-"+codec)
	return dst, os.WriteFile(dst, append([]byte(codec+":"), b...), 0o600)
}

// contentProber читает кодек из префикса "<codec>:", который пишет stagingConverter
type contentProber struct {
	override      string
	durationErr   error
	durationCalls int
}

func (p *contentProber) Codec(_ context.Context, path string) (string, error) {
	if p.override != "" {
		return p.override, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	codec, _, _ := strings.Cut(string(b), ":")
	return speech.ProbeName(codec), nil
}

func (p *contentProber) AudioDuration(_ context.Context, path string) (float64, error) {
	p.durationCalls++
	if p.durationErr != nil {
		return 0, p.durationErr
	}
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}
	return 1.5, nil
}

package blog

import (
	"testing"
	"time"
)

func TestCacheServesAndInvalidates(t *testing.T) {
	repo, _, _, _ := newTestRepo(t)
	cache := NewCache(repo, time.Minute)

	if _, err := repo.Create(validPost("first"), "body"); err != nil {
		t.Fatal(err)
	}

	posts, err := cache.ListPublished("")
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 {
		t.Fatalf("posts = %v", slugsOf(posts))
	}

	// A write behind the cache's back is invisible until invalidation.
	if _, err := repo.Create(validPost("second"), "body"); err != nil {
		t.Fatal(err)
	}
	posts, err = cache.ListPublished("")
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 {
		t.Errorf("stale read returned %v, want cached single post", slugsOf(posts))
	}

	cache.HandleInvalidation([]string{"/blog/second"})
	posts, err = cache.ListPublished("")
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 2 {
		t.Errorf("post-invalidation read = %v, want both posts", slugsOf(posts))
	}
}

func TestCacheIgnoresUnrelatedPaths(t *testing.T) {
	repo, _, _, _ := newTestRepo(t)
	cache := NewCache(repo, time.Minute)

	if _, err := repo.Create(validPost("only"), "body"); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.ListPublished(""); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.Create(validPost("hidden"), "body"); err != nil {
		t.Fatal(err)
	}
	cache.HandleInvalidation([]string{"/about", "/experience"})

	posts, err := cache.ListPublished("")
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 {
		t.Errorf("unrelated invalidation flushed the cache: %v", slugsOf(posts))
	}
}

func TestCacheFiltersByTagWithoutReload(t *testing.T) {
	repo, _, _, _ := newTestRepo(t)
	cache := NewCache(repo, time.Minute)

	tagged := validPost("tagged")
	tagged.Tags = []string{"go"}
	plain := validPost("plain")
	plain.Tags = nil
	for _, p := range []Post{tagged, plain} {
		if _, err := repo.Create(p, "body"); err != nil {
			t.Fatal(err)
		}
	}

	posts, err := cache.ListPublished("go")
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 || posts[0].Slug != "tagged" {
		t.Errorf("ListPublished(go) = %v", slugsOf(posts))
	}
}

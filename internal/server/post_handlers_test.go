package server

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"unnest/internal/models"
	"unnest/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postValues(title, category string) url.Values {
	return url.Values{
		"title":        {title},
		"introduction": {"Intro"},
		"content":      {"Body"},
		"category":     {category},
		"image_title":  {"Cover"},
	}
}

var titleRE = regexp.MustCompile(`<h2><a href="/post/\d+">([^<]+)</a></h2>`)

func listedTitles(body string) []string {
	var titles []string
	for _, m := range titleRE.FindAllStringSubmatch(body, -1) {
		titles = append(titles, m[1])
	}
	return titles
}

func TestLoginRequired_RedirectsWithNext(t *testing.T) {
	s, _ := newTestServer(t)

	resp := get(t, s, "/post/new")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?next=%2Fpost%2Fnew", resp.Header.Get("Location"))
	assert.NotNil(t, responseCookie(resp, flashCookie))

	resp = get(t, s, "/account")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestCreatePost(t *testing.T) {
	s, db := newTestServer(t)
	alice := testutil.CreateUser(t, db, "alice", "alice@example.com")
	cookie := loginCookie(t, s, alice)

	resp := postForm(t, s, "/post/new", postValues("Window functions", "SQL"), cookie)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/home", resp.Header.Get("Location"))

	var post models.Post
	require.NoError(t, db.First(&post).Error)
	assert.Equal(t, "Window functions", post.Title)
	assert.Equal(t, alice.ID, post.UserID)
	assert.Equal(t, models.DefaultPostImage, post.ImageFilename)
	assert.WithinDuration(t, time.Now().UTC(), post.DatePosted, time.Minute)
}

func TestCreatePost_WithBackgroundImage(t *testing.T) {
	s, db := newTestServer(t)
	alice := testutil.CreateUser(t, db, "alice", "alice@example.com")

	resp := postMultipart(t, s, "/post/new", postValues("Pictures", "Other"),
		&upload{field: "image", filename: "wide.png", data: testutil.PNG(t, 1600, 800)},
		loginCookie(t, s, alice))
	require.Equal(t, http.StatusFound, resp.StatusCode)

	var post models.Post
	require.NoError(t, db.First(&post).Error)
	assert.True(t, strings.HasPrefix(post.ImageFilename, "images/background_images/"))

	_, err := os.Stat(filepath.Join(s.config.StaticDir, filepath.FromSlash(post.ImageFilename)))
	assert.NoError(t, err)
}

func TestCreatePost_ValidationErrorsRerender(t *testing.T) {
	s, db := newTestServer(t)
	alice := testutil.CreateUser(t, db, "alice", "alice@example.com")

	values := postValues("", "Rust")
	resp := postMultipart(t, s, "/post/new", values,
		&upload{field: "image", filename: "anim.gif", data: []byte("GIF89a")},
		loginCookie(t, s, alice))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Contains(t, body, "This field is required.")
	assert.Contains(t, body, "Not a valid choice.")
	assert.Contains(t, body, "File does not have an approved extension: jpg, png")

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestShowPost(t *testing.T) {
	s, db := newTestServer(t)
	alice := testutil.CreateUser(t, db, "alice", "alice@example.com")
	post := testutil.CreatePost(t, db, alice, "Generators", "Python", time.Now())

	resp := get(t, s, fmt.Sprintf("/post/%d", post.ID))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "Generators")

	for _, path := range []string{"/post/999", "/post/abc", "/post/0"} {
		resp = get(t, s, path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestUpdatePost_ByAuthor(t *testing.T) {
	s, db := newTestServer(t)
	alice := testutil.CreateUser(t, db, "alice", "alice@example.com")
	posted := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)
	post := testutil.CreatePost(t, db, alice, "Draft", "Other", posted)
	cookie := loginCookie(t, s, alice)

	resp := get(t, s, fmt.Sprintf("/post/%d/update", post.ID), cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `value="Draft"`)

	resp = postForm(t, s, fmt.Sprintf("/post/%d/update", post.ID), postValues("Final", "Concepts"), cookie)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, fmt.Sprintf("/post/%d", post.ID), resp.Header.Get("Location"))

	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Equal(t, "Final", stored.Title)
	assert.Equal(t, "Concepts", stored.Category)
	assert.True(t, posted.Equal(stored.DatePosted))
}

func TestNonAuthorGetsForbiddenAndNothingChanges(t *testing.T) {
	s, db := newTestServer(t)
	alice := testutil.CreateUser(t, db, "alice", "alice@example.com")
	bob := testutil.CreateUser(t, db, "bob", "bob@example.com")
	post := testutil.CreatePost(t, db, alice, "Mine", "SQL", time.Now())
	bobCookie := loginCookie(t, s, bob)

	resp := get(t, s, fmt.Sprintf("/post/%d/update", post.ID), bobCookie)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = postForm(t, s, fmt.Sprintf("/post/%d/update", post.ID), postValues("Hijacked", "Other"), bobCookie)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = postForm(t, s, fmt.Sprintf("/post/%d/delete", post.ID), url.Values{}, bobCookie)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var stored models.Post
	require.NoError(t, db.First(&stored, post.ID).Error)
	assert.Equal(t, "Mine", stored.Title)
	assert.Equal(t, "SQL", stored.Category)
}

func TestDeletePost(t *testing.T) {
	s, db := newTestServer(t)
	alice := testutil.CreateUser(t, db, "alice", "alice@example.com")
	post := testutil.CreatePost(t, db, alice, "Temporary", "SQL", time.Now())
	cookie := loginCookie(t, s, alice)

	resp := postForm(t, s, fmt.Sprintf("/post/%d/delete", post.ID), url.Values{}, cookie)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/home", resp.Header.Get("Location"))

	resp = get(t, s, fmt.Sprintf("/post/%d", post.ID))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postForm(t, s, fmt.Sprintf("/post/%d/delete", post.ID), url.Values{}, cookie)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUserPosts_PaginatesNewestFirst(t *testing.T) {
	s, db := newTestServer(t)
	alice := testutil.CreateUser(t, db, "alice", "alice@example.com")
	bob := testutil.CreateUser(t, db, "bob", "bob@example.com")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 12; i++ {
		testutil.CreatePost(t, db, alice, fmt.Sprintf("alice-%02d", i), "Python", base.Add(time.Duration(i)*time.Hour))
	}
	testutil.CreatePost(t, db, bob, "bob-01", "Python", base.Add(50*time.Hour))

	resp := get(t, s, "/user/alice?page=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"alice-07", "alice-06", "alice-05", "alice-04", "alice-03"}, listedTitles(readBody(t, resp)))

	resp = get(t, s, "/user/alice?page=abc")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"alice-12", "alice-11", "alice-10", "alice-09", "alice-08"}, listedTitles(readBody(t, resp)))

	for _, q := range []string{"-3", "0"} {
		resp = get(t, s, "/user/alice?page="+q)
		require.Equal(t, http.StatusOK, resp.StatusCode, q)
		assert.Equal(t, []string{"alice-12", "alice-11", "alice-10", "alice-09", "alice-08"}, listedTitles(readBody(t, resp)), q)
	}

	resp = get(t, s, "/user/alice?page=9")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = get(t, s, "/user/nobody")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHome_ListsAllNewestFirst(t *testing.T) {
	s, db := newTestServer(t)
	alice := testutil.CreateUser(t, db, "alice", "alice@example.com")
	bob := testutil.CreateUser(t, db, "bob", "bob@example.com")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testutil.CreatePost(t, db, alice, "first", "SQL", base)
	testutil.CreatePost(t, db, bob, "second", "Python", base.Add(time.Hour))

	for _, path := range []string{"/", "/home"} {
		resp := get(t, s, path)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []string{"second", "first"}, listedTitles(readBody(t, resp)))
	}
}

func TestCategoryPosts(t *testing.T) {
	s, db := newTestServer(t)
	alice := testutil.CreateUser(t, db, "alice", "alice@example.com")
	testutil.CreatePost(t, db, alice, "joins", "SQL", time.Now())
	testutil.CreatePost(t, db, alice, "lists", "Python", time.Now())

	resp := get(t, s, "/category/SQL")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"joins"}, listedTitles(readBody(t, resp)))

	resp = get(t, s, "/category/Concepts")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, listedTitles(readBody(t, resp)))
}

func TestNavigationCategoriesTrackWrites(t *testing.T) {
	s, db := newTestServer(t)
	alice := testutil.CreateUser(t, db, "alice", "alice@example.com")
	cookie := loginCookie(t, s, alice)

	body := readBody(t, get(t, s, "/home"))
	assert.NotContains(t, body, `href="/category/SQL"`)

	resp := postForm(t, s, "/post/new", postValues("joins", "SQL"), cookie)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	body = readBody(t, get(t, s, "/home"))
	assert.Contains(t, body, `href="/category/SQL"`)

	var post models.Post
	require.NoError(t, db.First(&post).Error)
	resp = postForm(t, s, fmt.Sprintf("/post/%d/update", post.ID), postValues("joins", "Concepts"), cookie)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	body = readBody(t, get(t, s, "/home"))
	assert.NotContains(t, body, `href="/category/SQL"`)
	assert.Contains(t, body, `href="/category/Concepts"`)
}

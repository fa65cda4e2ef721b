package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func textHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, body)
	})
}

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestMountReusesIntermediateNodes(t *testing.T) {
	root := NewResource()
	require.NoError(t, Mount(root, "/wm/omniui/link/json", textHandler("links")))

	wm, ok := root.Child("wm")
	require.True(t, ok)
	omniui, ok := wm.Child("omniui")
	require.True(t, ok)

	require.NoError(t, Mount(root, "/wm/omniui/switch/json", textHandler("switches")))

	wm2, _ := root.Child("wm")
	omniui2, _ := wm2.Child("omniui")
	require.Same(t, wm, wm2)
	require.Same(t, omniui, omniui2)
	require.Len(t, root.children, 1)
	require.Len(t, omniui.children, 2)

	require.Equal(t, "links", serve(t, root, http.MethodGet, "/wm/omniui/link/json").Body.String())
	require.Equal(t, "switches", serve(t, root, http.MethodGet, "/wm/omniui/switch/json").Body.String())
}

func TestMountLastWins(t *testing.T) {
	root := NewResource()
	require.NoError(t, Mount(root, "/a/b", textHandler("first")))
	require.NoError(t, Mount(root, "/a/b", textHandler("second")))

	a, _ := root.Child("a")
	require.Len(t, a.children, 1)
	require.Equal(t, "second", serve(t, root, http.MethodGet, "/a/b").Body.String())
}

func TestMountKeepsChildrenOfReplacedLeaf(t *testing.T) {
	root := NewResource()
	require.NoError(t, Mount(root, "/a/b/c", textHandler("deep")))
	require.NoError(t, Mount(root, "/a/b", textHandler("leaf")))

	require.Equal(t, "deep", serve(t, root, http.MethodGet, "/a/b/c").Body.String())
	require.Equal(t, "leaf", serve(t, root, http.MethodGet, "/a/b").Body.String())
}

func TestMountInvalidPath(t *testing.T) {
	root := NewResource()
	for _, p := range []string{"", "wm/omniui/link/json", "link"} {
		err := Mount(root, p, textHandler("x"))
		require.ErrorIs(t, err, ErrInvalidPath)
	}
	require.Empty(t, root.children)
}

func TestMountRootAndTrailingSlash(t *testing.T) {
	root := NewResource()
	require.NoError(t, Mount(root, "/", textHandler("index")))
	require.NoError(t, Mount(root, "/dir/", textHandler("dir")))

	_, ok := root.Child("")
	require.True(t, ok)
	require.Equal(t, "index", serve(t, root, http.MethodGet, "/").Body.String())
	require.Equal(t, "dir", serve(t, root, http.MethodGet, "/dir/").Body.String())
	require.Equal(t, http.StatusNotFound, serve(t, root, http.MethodGet, "/dir").Code)
}

func TestResourceNotFound(t *testing.T) {
	root := NewResource()
	require.NoError(t, Mount(root, "/wm/omniui/link/json", textHandler("links")))

	require.Equal(t, http.StatusNotFound, serve(t, root, http.MethodGet, "/wm/omniui").Code)
	require.Equal(t, http.StatusNotFound, serve(t, root, http.MethodGet, "/wm/omniui/host/json").Code)
	require.Equal(t, http.StatusNotFound, serve(t, root, http.MethodGet, "/wm/omniui/link/json/extra").Code)
}

func TestMountZeroValueRoot(t *testing.T) {
	var root Resource
	require.NoError(t, Mount(&root, "/a/b", textHandler("b")))
	require.Equal(t, "b", serve(t, &root, http.MethodGet, "/a/b").Body.String())

	var leaf Resource
	leaf.PutChild("x", NewResource())
	_, ok := leaf.Child("x")
	require.True(t, ok)
}

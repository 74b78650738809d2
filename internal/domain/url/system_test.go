package url_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	urlx "github.com/bnema/shadowtab/internal/domain/url"
)

func TestIsSystemURL(t *testing.T) {
	system := []string{
		"",
		"chrome://newtab/",
		"chrome-extension://abcdef/popup.html",
		"moz-extension://1234/options.html",
		"about:blank",
		"about:config",
		"edge://settings",
		"devtools://devtools/bundled/inspector.html",
		"view-source:https://example.com",
		"javascript:void(0)",
		"data:text/html,hello",
		"blob:https://example.com/uuid",
	}
	for _, u := range system {
		require.True(t, urlx.IsSystemURL(u), "expected system URL: %q", u)
		require.False(t, urlx.IsContentURL(u), "expected not content: %q", u)
	}

	content := []string{
		"https://example.com",
		"http://localhost:8080/",
		"https://aboutus.example.com", // "about" inside a hostname is content
		"file:///home/user/doc.html",
	}
	for _, u := range content {
		require.False(t, urlx.IsSystemURL(u), "expected content URL: %q", u)
		require.True(t, urlx.IsContentURL(u), "expected content: %q", u)
	}
}

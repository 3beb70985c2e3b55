package friend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLinkList = `- class_name: 推荐
  class_desc: 都是大佬
  link_list:
    - name: 阿喵
      link: https://www.amiao.cc/
      avatar: https://amiao.cc/avatar.png
      descr: 一只猫

    - name: 小白
      link: https://xiaobai.dev
      avatar: https://xiaobai.dev/a.png
      descr: 白白的

- class_name: 小伙伴
  link_list:
    - name: 阿喵
      link: https://amiao.cc
      avatar: https://other.example/avatar.png
      descr: 重复的猫

- class_name: 空分类
  class_desc: 还没有人
`

func TestNormalizeLink(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://www.amiao.cc/", "amiao.cc"},
		{"http://amiao.cc", "amiao.cc"},
		{"amiao.cc/", "amiao.cc"},
		{"amiao.cc", "amiao.cc"},
		{"HTTPS://WWW.Amiao.CC/", "Amiao.CC"},
		{"https://amiao.cc/blog/", "amiao.cc/blog"},
		{"https://amiao.cc//", "amiao.cc/"},
		{"www.amiao.cc", "amiao.cc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLink(tt.raw), "raw=%q", tt.raw)
	}
}

func TestNormalizeLinkEquivalence(t *testing.T) {
	forms := []string{
		"https://www.amiao.cc/",
		"http://www.amiao.cc",
		"https://amiao.cc",
		"www.amiao.cc/",
		"amiao.cc",
	}
	for _, f := range forms {
		assert.Equal(t, "amiao.cc", NormalizeLink(f), "form=%q", f)
	}
}

func TestBranchSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"xcnya.cn", "xcnyacn"},
		{"阿喵 blog!", "blog"},
		{"Friend-123", "Friend123"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BranchSlug(tt.in))
	}
}

func TestFindEntryFirstMatchInDocumentOrder(t *testing.T) {
	list, err := ParseLinkList(sampleLinkList)
	require.NoError(t, err)

	// 阿喵 appears in both categories; the first category wins.
	e := FindEntry(list, NormalizeLink("amiao.cc"))
	require.NotNil(t, e)
	assert.Equal(t, "https://www.amiao.cc/", e.Link)
	assert.Equal(t, "一只猫", e.Descr)

	e = FindEntry(list, NormalizeLink("https://xiaobai.dev/"))
	require.NotNil(t, e)
	assert.Equal(t, "小白", e.Name)
}

func TestFindEntryMiss(t *testing.T) {
	list, err := ParseLinkList(sampleLinkList)
	require.NoError(t, err)

	assert.Nil(t, FindEntry(list, NormalizeLink("https://nobody.example")))
	assert.Nil(t, FindEntry(LinkList{}, "amiao.cc"))
}

func TestPatchEntryReplacesWithoutTouchingOriginal(t *testing.T) {
	list, err := ParseLinkList(sampleLinkList)
	require.NoError(t, err)

	entry := LinkEntry{
		Name:   "阿喵喵",
		Link:   "https://amiao.cc",
		Avatar: "https://amiao.cc/new.png",
		Descr:  "换了头像",
	}
	patched, found := PatchEntry(list, "amiao.cc", entry)
	require.True(t, found)

	// Only the first matching entry changes; category count is preserved.
	assert.Equal(t, list.Len(), patched.Len())
	got := FindEntry(patched, "amiao.cc")
	require.NotNil(t, got)
	assert.Equal(t, "阿喵喵", got.Name)
	assert.Equal(t, "https://amiao.cc/new.png", got.Avatar)

	// The second duplicate keeps its old fields.
	out, err := RenderLinkList(patched)
	require.NoError(t, err)
	assert.Contains(t, out, "重复的猫")

	// Deep copy: the input document is untouched.
	orig := FindEntry(list, "amiao.cc")
	require.NotNil(t, orig)
	assert.Equal(t, "阿喵", orig.Name)
}

func TestPatchEntryMiss(t *testing.T) {
	list, err := ParseLinkList(sampleLinkList)
	require.NoError(t, err)

	patched, found := PatchEntry(list, "nobody.example", LinkEntry{Name: "x"})
	assert.False(t, found)

	want, err := RenderLinkList(list)
	require.NoError(t, err)
	got, err := RenderLinkList(patched)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRenderLinkListRoundTrip(t *testing.T) {
	list, err := ParseLinkList(sampleLinkList)
	require.NoError(t, err)

	out, err := RenderLinkList(list)
	require.NoError(t, err)

	// Blank line before every top-level category except the first.
	assert.False(t, strings.HasPrefix(out, "\n"))
	assert.False(t, strings.HasSuffix(out, "\n"))
	assert.Equal(t, list.Len()-1, strings.Count(out, "\n\n- "))

	reparsed, err := ParseLinkList(out)
	require.NoError(t, err)
	rerendered, err := RenderLinkList(reparsed)
	require.NoError(t, err)
	assert.Equal(t, out, rerendered)
}

func TestPatchEntryPreservesKeyOrder(t *testing.T) {
	// Keys are deliberately not in alphabetical order; a patch must not
	// reorder them anywhere in the document.
	const input = `- class_name: 推荐
  class_desc: 都是大佬
  link_list:
    - name: 阿喵
      link: https://www.amiao.cc/
      avatar: https://amiao.cc/avatar.png
      descr: 一只猫
    - name: 小白
      link: https://xiaobai.dev
      avatar: https://xiaobai.dev/a.png
      descr: 白白的
`
	list, err := ParseLinkList(input)
	require.NoError(t, err)

	patched, found := PatchEntry(list, "xiaobai.dev", LinkEntry{
		Name:   "小黑",
		Link:   "https://xiaohei.dev",
		Avatar: "https://xiaohei.dev/a.png",
		Descr:  "黑黑的",
	})
	require.True(t, found)

	out, err := RenderLinkList(patched)
	require.NoError(t, err)

	want := `- class_name: 推荐
  class_desc: 都是大佬
  link_list:
    - name: 阿喵
      link: https://www.amiao.cc/
      avatar: https://amiao.cc/avatar.png
      descr: 一只猫
    - name: 小黑
      link: https://xiaohei.dev
      avatar: https://xiaohei.dev/a.png
      descr: 黑黑的`
	assert.Equal(t, want, out)
}

func TestRenderLinkListKeepsUntouchedLines(t *testing.T) {
	list, err := ParseLinkList(sampleLinkList)
	require.NoError(t, err)

	patched, found := PatchEntry(list, "xiaobai.dev", LinkEntry{
		Name: "小黑", Link: "https://xiaohei.dev",
		Avatar: "https://xiaohei.dev/a.png", Descr: "黑黑的",
	})
	require.True(t, found)

	out, err := RenderLinkList(patched)
	require.NoError(t, err)

	// Untouched entries and category headers come back byte-identical,
	// in the original key order.
	assert.Contains(t, out, "- class_name: 推荐\n  class_desc: 都是大佬\n  link_list:")
	assert.Contains(t, out, "    - name: 阿喵\n      link: https://www.amiao.cc/\n      avatar: https://amiao.cc/avatar.png\n      descr: 一只猫")
	assert.Contains(t, out, "    - name: 小黑\n      link: https://xiaohei.dev\n      avatar: https://xiaohei.dev/a.png\n      descr: 黑黑的")
}

func TestFormatEntry(t *testing.T) {
	got := FormatEntry(LinkEntry{
		Name:   "阿喵",
		Link:   "https://amiao.cc",
		Avatar: "https://amiao.cc/a.png",
		Descr:  "一只猫",
	})
	want := "\n    - name: 阿喵\n      link: https://amiao.cc\n      avatar: https://amiao.cc/a.png\n      descr: 一只猫"
	assert.Equal(t, want, got)
}

func TestFormatExistingEntry(t *testing.T) {
	got := FormatExistingEntry(&LinkEntry{
		Name:   "阿喵",
		Link:   "https://amiao.cc",
		Avatar: "https://amiao.cc/a.png",
		Descr:  "一只猫",
	})
	want := "- name: 阿喵\n  link: https://amiao.cc\n  avatar: https://amiao.cc/a.png\n  descr: 一只猫\n"
	assert.Equal(t, want, got)
}

func TestRenderDiff(t *testing.T) {
	oldEntry := "- name: 阿喵\n  link: https://amiao.cc\n"
	newEntry := "\n    - name: 阿喵喵\n      link: https://amiao.cc"

	got := RenderDiff(oldEntry, newEntry)
	want := strings.Join([]string{
		"- - name: 阿喵",
		"-   link: https://amiao.cc",
		"",
		"+     - name: 阿喵喵",
		"+       link: https://amiao.cc",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestRenderDiffEmptyOldSide(t *testing.T) {
	got := RenderDiff("", "\n    - name: 阿喵\n      link: https://amiao.cc")
	want := "+     - name: 阿喵\n+       link: https://amiao.cc"
	assert.Equal(t, want, got)
}

func TestRenderDiffKeepsIdenticalLines(t *testing.T) {
	// Unchanged lines still show on both sides; this is a presentation diff,
	// not a minimal one.
	got := RenderDiff("same\n", "same")
	assert.Equal(t, "- same\n\n+ same", got)
}

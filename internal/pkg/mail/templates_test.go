package mail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeApplyNotify(t *testing.T) {
	subject, html, err := ComposeApplyNotify(ApplyNotifyData{
		Name: "阿喵", Link: "https://amiao.cc",
		AvatarLink: "https://amiao.cc/a.png", Descr: "一只猫",
		Email: "cat@amiao.cc", ReviewURL: "https://api.example/review",
		AppliedAt: "2026/9/1 10:00:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "新的友链申请: 阿喵 - https://amiao.cc", subject)
	assert.Contains(t, html, "收到新的友链申请")
	assert.Contains(t, html, "审核友链")
	assert.NotContains(t, html, "原链接")
}

func TestComposeApplyNotifyUpdateVariant(t *testing.T) {
	subject, html, err := ComposeApplyNotify(ApplyNotifyData{
		Name: "阿喵", Link: "https://amiao.cc",
		OriginalLink: "https://old.amiao.cc",
	})
	require.NoError(t, err)
	assert.Equal(t, "新的友链更新申请: 阿喵 - https://old.amiao.cc", subject)
	assert.Contains(t, html, "收到新的友链更新申请")
	assert.Contains(t, html, "原链接")
}

func TestComposeResultNotify(t *testing.T) {
	subject, html, err := ComposeResultNotify(ResultNotifyData{
		Name: "阿喵", Approved: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "您的友链申请已通过", subject)
	assert.Contains(t, html, "友链申请已通过")

	subject, html, err = ComposeResultNotify(ResultNotifyData{
		Name: "阿喵", Approved: false,
		Reason: "头像无法访问", AdminEmail: "admin@xcnya.cn",
	})
	require.NoError(t, err)
	assert.Equal(t, "您的友链申请未通过审核", subject)
	assert.Contains(t, html, "头像无法访问")
	assert.Contains(t, html, "admin@xcnya.cn")
}

func TestComposePatchFailed(t *testing.T) {
	subject, html, err := ComposePatchFailed(ApplyNotifyData{
		Name: "阿喵", OriginalLink: "https://gone.example",
	})
	require.NoError(t, err)
	assert.Equal(t, "友链修改失败通知", subject)
	assert.Contains(t, html, "https://gone.example")
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2026, 9, 1, 8, 5, 9, 0, time.UTC)
	assert.Equal(t, "2026/9/1 08:05:09", Timestamp(ts))
}

package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const applyNotifyTpl = `<div style="font-family:'Segoe UI',Arial,sans-serif;max-width:400px;margin:0 auto;border:1px solid #eee;border-radius:10px;box-shadow:0 2px 8px #f0f1f2;padding:24px">
  <h2 style="color:#1677ff">{{if .OriginalLink}}收到新的友链更新申请{{else}}收到新的友链申请{{end}}</h2>
  {{if .OriginalLink}}<div style="color:#888;font-size:12px;margin-bottom:8px">原链接：{{.OriginalLink}}</div>{{end}}
  <div style="display:flex;align-items:center;margin-bottom:16px">
    <img src="{{.AvatarLink}}" alt="头像" style="width:64px;height:64px;border-radius:50%;border:1px solid #eee;object-fit:cover;background:#f5f5f5;margin-right:16px">
    <div>
      <div style="font-size:18px;font-weight:bold">{{.Name}}</div>
      <a href="{{.Link}}" style="color:#1677ff;text-decoration:none">{{.Link}}</a>
    </div>
  </div>
  <div style="margin-bottom:8px"><b>描述：</b>{{.Descr}}</div>
  <div style="margin-bottom:8px"><b>联系邮箱：</b>{{.Email}}</div>
  <div style="color:#888;font-size:12px">申请时间：{{.AppliedAt}}</div>
  <a href="{{.ReviewURL}}" style="display:inline-block;margin-top:18px;padding:10px 24px;background:#1677ff;color:#fff;border-radius:6px;text-decoration:none;font-weight:bold">{{if .OriginalLink}}审核友链更新{{else}}审核友链{{end}}</a>
</div>`

const resultNotifyTpl = `<div style="font-family:'Segoe UI',Arial,sans-serif;max-width:500px;margin:0 auto;border:1px solid #eee;border-radius:10px;box-shadow:0 2px 8px rgba(0,0,0,0.1);padding:30px">
  <div style="text-align:center;margin-bottom:20px">
    <h2 style="color:{{if .Approved}}#52c41a{{else}}#ff4d4f{{end}};margin:15px 0 5px">{{if .Approved}}友链申请已通过！{{else}}友链申请未通过审核{{end}}</h2>
    <p style="color:#888;margin:0">审核时间: {{.ReviewedAt}}</p>
  </div>
  <div style="background-color:#f9f9f9;border-radius:8px;padding:20px;margin-bottom:20px">
    <div style="display:flex;align-items:center;margin-bottom:15px">
      <img src="{{.AvatarLink}}" alt="{{.Name}}" style="width:50px;height:50px;border-radius:50%;object-fit:cover;margin-right:15px;border:1px solid #eee">
      <div>
        <div style="font-weight:bold;font-size:16px">{{.Name}}</div>
        <a href="{{.Link}}" style="color:#1677ff;text-decoration:none;font-size:14px">{{.Link}}</a>
      </div>
    </div>
    <div style="color:#333;margin-bottom:10px;font-size:14px">{{.Descr}}</div>
  </div>
  {{if .Approved}}
  <div style="background-color:#f6ffed;border:1px solid #b7eb8f;border-radius:8px;padding:15px;margin-bottom:20px">
    <p style="color:#52c41a;margin:0 0 10px;font-weight:bold">恭喜！您的友链申请已通过审核</p>
    <p style="margin:0;color:#333">您的网站已被添加到我们的友链列表中，请等待CDN刷新，感谢您的支持！</p>
  </div>
  {{else}}
  <div style="background-color:#fff2f0;border:1px solid #ffccc7;border-radius:8px;padding:15px;margin-bottom:20px">
    <p style="color:#ff4d4f;margin:0 0 10px;font-weight:bold">很抱歉，您的友链申请未通过审核</p>
    <p style="margin:0;color:#333">拒绝原因: {{.Reason}}</p>
  </div>
  <div style="margin-top:20px">
    <p style="color:#888;margin:0">如有疑问，请联系管理员 ({{.AdminEmail}})。</p>
  </div>
  {{end}}
  <div style="margin-top:30px;text-align:center;color:#888;font-size:12px;border-top:1px solid #eee;padding-top:20px">
    <p>此邮件由系统自动发送，请勿直接回复</p>
  </div>
</div>`

const patchFailedTpl = `<p>友链修改失败，未找到原始友链：{{.OriginalLink}}</p>
<p>新的友链信息：</p>
<ul>
  <li>名称: {{.Name}}</li>
  <li>链接: {{.Link}}</li>
  <li>头像: {{.AvatarLink}}</li>
  <li>描述: {{.Descr}}</li>
</ul>`

// ApplyNotifyData feeds the admin notification for new and update applications.
type ApplyNotifyData struct {
	Name         string
	Link         string
	AvatarLink   string
	Descr        string
	Email        string
	OriginalLink string
	ReviewURL    string
	AppliedAt    string
}

// ResultNotifyData feeds the applicant decision-result notification.
type ResultNotifyData struct {
	Name       string
	Link       string
	AvatarLink string
	Descr      string
	Approved   bool
	Reason     string
	AdminEmail string
	ReviewedAt string
}

func renderTemplate(tpl string, data interface{}) (string, error) {
	t, err := template.New("").Parse(tpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Timestamp formats a review/application time the way the emails display it.
func Timestamp(t time.Time) string {
	return t.Format("2006/1/2 15:04:05")
}

// ComposeApplyNotify builds the admin notification for a new or update
// application. It performs no delivery.
func ComposeApplyNotify(data ApplyNotifyData) (subject, html string, err error) {
	html, err = renderTemplate(applyNotifyTpl, data)
	if err != nil {
		return "", "", err
	}
	if data.OriginalLink != "" {
		return fmt.Sprintf("新的友链更新申请: %s - %s", data.Name, data.OriginalLink), html, nil
	}
	return fmt.Sprintf("新的友链申请: %s - %s", data.Name, data.Link), html, nil
}

// ComposeResultNotify builds the decision-result mail for the applicant.
func ComposeResultNotify(data ResultNotifyData) (subject, html string, err error) {
	html, err = renderTemplate(resultNotifyTpl, data)
	if err != nil {
		return "", "", err
	}
	if data.Approved {
		return "您的友链申请已通过", html, nil
	}
	return "您的友链申请未通过审核", html, nil
}

// ComposePatchFailed builds the operator alert sent when the original entry
// of an update application has vanished from the link list.
func ComposePatchFailed(data ApplyNotifyData) (subject, html string, err error) {
	html, err = renderTemplate(patchFailedTpl, data)
	if err != nil {
		return "", "", err
	}
	return "友链修改失败通知", html, nil
}

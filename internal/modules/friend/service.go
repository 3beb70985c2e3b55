package friend

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/xcnya/friend-apply/internal/config"
	"github.com/xcnya/friend-apply/internal/models"
	"github.com/xcnya/friend-apply/internal/pkg/mail"
	"go.uber.org/zap"
)

// Mailer delivers a composed message. Delivery is best-effort everywhere:
// a failure is logged and never fails the enclosing operation.
type Mailer interface {
	Send(msg mail.Message) error
}

// RepoClient is the code-hosting surface the PR flows need. Each call is an
// independent network operation with no transactional rollback; a failure
// partway through a flow leaves orphaned remote state and surfaces as an error.
type RepoClient interface {
	GetFile(ctx context.Context, path string) (content, sha string, err error)
	GetDefaultBranch(ctx context.Context) (string, error)
	GetBranchHeadSHA(ctx context.Context, branch string) (string, error)
	CreateBranch(ctx context.Context, name, fromSHA string) error
	PutFile(ctx context.Context, path, content, branch, sha, message string) error
	CreatePullRequest(ctx context.Context, title, head, base, body string) (number int, htmlURL string, err error)
	AddLabels(ctx context.Context, number int, labels []string) error
}

// Service owns the application lifecycle: submit, review decisions and the
// two approval flows against the external link-list file.
type Service struct {
	store  Store
	repo   RepoClient
	mailer Mailer
	cfg    *config.AppConfig
	log    *zap.Logger
}

func NewService(store Store, repo RepoClient, mailer Mailer, cfg *config.AppConfig, log *zap.Logger) *Service {
	return &Service{store: store, repo: repo, mailer: mailer, cfg: cfg, log: log}
}

func (s *Service) checkCredential(pwd string) error {
	if pwd == "" || pwd != s.cfg.ReviewPassword {
		return errUnauthorized
	}
	return nil
}

// Submit stores a new friend application and notifies the admin.
// The notification is fire-and-forget: the submission succeeds regardless.
func (s *Service) Submit(ctx context.Context, dto *ApplyDTO) (string, error) {
	rec := &models.FriendApplyModel{
		Name: dto.Name, Link: dto.Link, AvatarLink: dto.AvatarLink,
		Descr: dto.Descr, Email: dto.Email,
		State: models.ApplyPending,
	}
	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("insert application: %w", err)
	}
	go s.notifyAdmin(rec)
	return id, nil
}

// SubmitUpdate stores an update application for an existing friend.
func (s *Service) SubmitUpdate(ctx context.Context, dto *UpdateApplyDTO) (string, error) {
	rec := &models.FriendApplyModel{
		Name: dto.Name, Link: dto.Link, AvatarLink: dto.AvatarLink,
		Descr: dto.Descr, Email: dto.Email,
		State:        models.ApplyPending,
		OriginalLink: dto.OriginalLink,
	}
	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("insert application: %w", err)
	}
	go s.notifyAdmin(rec)
	return id, nil
}

// List returns every application, newest first.
func (s *Service) List(ctx context.Context) ([]models.FriendApplyModel, error) {
	return s.store.ListAll(ctx)
}

// Detail returns one application after the credential check.
func (s *Service) Detail(ctx context.Context, id, pwd string) (*models.FriendApplyModel, error) {
	if err := s.checkCredential(pwd); err != nil {
		return nil, err
	}
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errNotFound
	}
	return rec, nil
}

// UpdateRecord applies an admin edit to a stored application.
func (s *Service) UpdateRecord(ctx context.Context, dto *UpdateRecordDTO) error {
	if err := s.checkCredential(dto.Pwd); err != nil {
		return err
	}
	rec, err := s.store.FindByID(ctx, dto.ID)
	if err != nil {
		return err
	}
	if rec == nil {
		return errNotFound
	}

	fields := map[string]interface{}{}
	if dto.Name != nil {
		fields["name"] = *dto.Name
	}
	if dto.Link != nil {
		fields["link"] = *dto.Link
	}
	if dto.AvatarLink != nil {
		fields["avatar_link"] = *dto.AvatarLink
	}
	if dto.Descr != nil {
		fields["descr"] = *dto.Descr
	}
	if dto.Email != nil {
		fields["email"] = *dto.Email
	}
	if dto.State != nil {
		fields["state"] = *dto.State
	}
	if len(fields) == 0 {
		return nil
	}
	fields["updated_at"] = time.Now()
	return s.store.UpdateByID(ctx, dto.ID, fields)
}

// Approve flips the record to Approved, then publishes the change: the
// append flow for new friends, the patch flow when OriginalLink is set.
// The state flip is not rolled back when publishing fails afterwards; the
// caller observes the error with the record already Approved.
func (s *Service) Approve(ctx context.Context, id, pwd string) (string, error) {
	if err := s.checkCredential(pwd); err != nil {
		return "", err
	}
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", errNotFound
	}

	if err := s.store.UpdateByID(ctx, id, map[string]interface{}{
		"state":      models.ApplyApproved,
		"updated_at": time.Now(),
	}); err != nil {
		return "", fmt.Errorf("update state: %w", err)
	}

	var prURL string
	if rec.OriginalLink != "" {
		prURL, err = s.updateFriendPR(ctx, rec)
	} else {
		prURL, err = s.createFriendPR(ctx, rec)
	}
	if err != nil {
		return "", err
	}

	go s.notifyResult(rec, true, "")
	return prURL, nil
}

// Reject marks the record rejected with a reason and notifies the applicant.
func (s *Service) Reject(ctx context.Context, id, pwd, reason string) error {
	if err := s.checkCredential(pwd); err != nil {
		return err
	}
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if rec == nil {
		return errNotFound
	}

	if reason == "" {
		reason = defaultRejectReason
	}
	if err := s.store.UpdateByID(ctx, id, map[string]interface{}{
		"state":         models.ApplyRejected,
		"reject_reason": reason,
		"updated_at":    time.Now(),
	}); err != nil {
		return fmt.Errorf("update state: %w", err)
	}

	go s.notifyResult(rec, false, reason)
	return nil
}

// PreviewDiff recomputes what Approve would write, without mutating anything.
// The old side comes from the same matcher the patch flow uses, so the
// preview and the eventual patch always agree.
func (s *Service) PreviewDiff(ctx context.Context, id, pwd string) (*PreviewResult, error) {
	if err := s.checkCredential(pwd); err != nil {
		return nil, err
	}
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errNotFound
	}

	newEntry := FormatEntry(entryOf(rec))
	oldEntry := ""
	kind := "new"

	if rec.OriginalLink != "" {
		kind = "update"
		content, _, err := s.repo.GetFile(ctx, s.cfg.GitHub.LinkFilePath)
		if err != nil {
			return nil, fmt.Errorf("fetch link file: %w", err)
		}
		list, err := ParseLinkList(content)
		if err != nil {
			return nil, err
		}
		if e := FindEntry(list, NormalizeLink(rec.OriginalLink)); e != nil {
			oldEntry = FormatExistingEntry(e)
		} else {
			oldEntry = "# 未找到原始友链: " + rec.OriginalLink
		}
	}

	return &PreviewResult{
		Diff:     RenderDiff(oldEntry, newEntry),
		OldEntry: oldEntry,
		NewEntry: newEntry,
		Type:     kind,
	}, nil
}

// MatchFriend looks a link up in the current link-list document and returns
// the rendered existing entry. errNotFound means the document was read fine
// but no entry matched; transport failures propagate as-is.
func (s *Service) MatchFriend(ctx context.Context, rawURL string) (string, error) {
	content, _, err := s.repo.GetFile(ctx, s.cfg.GitHub.LinkFilePath)
	if err != nil {
		return "", fmt.Errorf("fetch link file: %w", err)
	}
	list, err := ParseLinkList(content)
	if err != nil {
		return "", err
	}
	e := FindEntry(list, NormalizeLink(rawURL))
	if e == nil {
		return "", errNotFound
	}
	return FormatExistingEntry(e), nil
}

// createFriendPR is the append flow: the formatted entry is appended to the
// raw file content and proposed on a fresh branch.
func (s *Service) createFriendPR(ctx context.Context, rec *models.FriendApplyModel) (string, error) {
	path := s.cfg.GitHub.LinkFilePath
	content, sha, err := s.repo.GetFile(ctx, path)
	if err != nil {
		return "", fmt.Errorf("fetch link file: %w", err)
	}

	newEntry := FormatEntry(entryOf(rec))
	branch := fmt.Sprintf("add-friend-%s-%s-%d",
		BranchSlug(rec.Name), BranchSlug(rec.Link), time.Now().UnixMilli())

	prURL, err := s.publish(ctx, publishRequest{
		path:    path,
		content: content + newEntry,
		sha:     sha,
		branch:  branch,
		message: "add friend link: " + rec.Name,
		title:   "友链申请：" + rec.Link,
		body:    "自动提交友链申请 by API\n\n" + newEntry,
		labels:  []string{"friend"},
	})
	if err != nil {
		return "", err
	}
	return prURL, nil
}

// updateFriendPR is the patch flow: the matched entry is replaced in a deep
// copy of the parsed document and the re-rendered file is proposed as a PR.
func (s *Service) updateFriendPR(ctx context.Context, rec *models.FriendApplyModel) (string, error) {
	path := s.cfg.GitHub.LinkFilePath
	content, sha, err := s.repo.GetFile(ctx, path)
	if err != nil {
		return "", fmt.Errorf("fetch link file: %w", err)
	}
	list, err := ParseLinkList(content)
	if err != nil {
		return "", err
	}

	entry := entryOf(rec)
	patched, found := PatchEntry(list, NormalizeLink(rec.OriginalLink), entry)
	if !found {
		go s.notifyPatchFailed(rec)
		return "", errOriginalVanished
	}

	newContent, err := RenderLinkList(patched)
	if err != nil {
		return "", err
	}

	newEntry := FormatEntry(entry)
	branch := fmt.Sprintf("update-friend-%s-%d", BranchSlug(rec.Name), time.Now().UnixMilli())

	return s.publish(ctx, publishRequest{
		path:    path,
		content: newContent,
		sha:     sha,
		branch:  branch,
		message: "update friend link: " + rec.Name,
		title:   "友链更新：" + rec.Link,
		body:    "自动更新友链 by API\n\n" + newEntry,
		labels:  []string{"friend", "update"},
	})
}

type publishRequest struct {
	path    string
	content string
	sha     string
	branch  string
	message string
	title   string
	body    string
	labels  []string
}

// publish runs the branch/commit/PR/label sequence. The calls are not
// transactional: a failure leaves whatever already succeeded in place.
func (s *Service) publish(ctx context.Context, req publishRequest) (string, error) {
	base, err := s.repo.GetDefaultBranch(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve default branch: %w", err)
	}
	baseSHA, err := s.repo.GetBranchHeadSHA(ctx, base)
	if err != nil {
		return "", fmt.Errorf("resolve base head: %w", err)
	}
	if err := s.repo.CreateBranch(ctx, req.branch, baseSHA); err != nil {
		return "", fmt.Errorf("create branch: %w", err)
	}
	if err := s.repo.PutFile(ctx, req.path, req.content, req.branch, req.sha, req.message); err != nil {
		return "", fmt.Errorf("commit file: %w", err)
	}
	number, prURL, err := s.repo.CreatePullRequest(ctx, req.title, req.branch, base, req.body)
	if err != nil {
		return "", fmt.Errorf("create pull request: %w", err)
	}
	if err := s.repo.AddLabels(ctx, number, req.labels); err != nil {
		return "", fmt.Errorf("add labels: %w", err)
	}
	return prURL, nil
}

func (s *Service) reviewURL(id string) string {
	return fmt.Sprintf("%s/api/friends/detail?id=%s&pwd=%s",
		s.cfg.APIDomain, url.QueryEscape(id), url.QueryEscape(s.cfg.ReviewPassword))
}

func (s *Service) notifyAdmin(rec *models.FriendApplyModel) {
	if s.cfg.AdminEmail == "" {
		return
	}
	subject, html, err := mail.ComposeApplyNotify(mail.ApplyNotifyData{
		Name: rec.Name, Link: rec.Link, AvatarLink: rec.AvatarLink,
		Descr: rec.Descr, Email: rec.Email,
		OriginalLink: rec.OriginalLink,
		ReviewURL:    s.reviewURL(rec.ID),
		AppliedAt:    mail.Timestamp(time.Now()),
	})
	if err != nil {
		s.log.Warn("compose admin notification failed", zap.Error(err))
		return
	}
	if err := s.mailer.Send(mail.Message{To: []string{s.cfg.AdminEmail}, Subject: subject, HTML: html}); err != nil {
		s.log.Warn("send admin notification failed", zap.String("id", rec.ID), zap.Error(err))
	}
}

func (s *Service) notifyResult(rec *models.FriendApplyModel, approved bool, reason string) {
	if rec.Email == "" {
		return
	}
	subject, html, err := mail.ComposeResultNotify(mail.ResultNotifyData{
		Name: rec.Name, Link: rec.Link, AvatarLink: rec.AvatarLink, Descr: rec.Descr,
		Approved:   approved,
		Reason:     reason,
		AdminEmail: s.cfg.AdminEmail,
		ReviewedAt: mail.Timestamp(time.Now()),
	})
	if err != nil {
		s.log.Warn("compose result notification failed", zap.Error(err))
		return
	}
	if err := s.mailer.Send(mail.Message{To: []string{rec.Email}, Subject: subject, HTML: html}); err != nil {
		s.log.Warn("send result notification failed", zap.String("id", rec.ID), zap.Error(err))
	}
}

func (s *Service) notifyPatchFailed(rec *models.FriendApplyModel) {
	if s.cfg.AdminEmail == "" {
		return
	}
	subject, html, err := mail.ComposePatchFailed(mail.ApplyNotifyData{
		Name: rec.Name, Link: rec.Link, AvatarLink: rec.AvatarLink,
		Descr: rec.Descr, OriginalLink: rec.OriginalLink,
	})
	if err != nil {
		s.log.Warn("compose patch-failed notification failed", zap.Error(err))
		return
	}
	if err := s.mailer.Send(mail.Message{To: []string{s.cfg.AdminEmail}, Subject: subject, HTML: html}); err != nil {
		s.log.Warn("send patch-failed notification failed", zap.String("id", rec.ID), zap.Error(err))
	}
}

func entryOf(rec *models.FriendApplyModel) LinkEntry {
	return LinkEntry{Name: rec.Name, Link: rec.Link, Avatar: rec.AvatarLink, Descr: rec.Descr}
}

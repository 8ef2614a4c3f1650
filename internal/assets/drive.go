package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/noah-isme/backend-perhiasan/internal/obs"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"
	publicURLBase  = "https://drive.google.com/uc?export=view&id="
)

// ErrInvalidURL is returned when a file id cannot be found in a URL.
var ErrInvalidURL = errors.New("assets: url does not reference a drive file")

// DriveConfig holds the OAuth client and refresh token used to act on Drive.
type DriveConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Root         string
	Logger       zerolog.Logger
}

// driveAPI is the subset of Drive operations the store relies on.
type driveAPI interface {
	FindFolder(ctx context.Context, name, parent string) (string, error)
	CreateFolder(ctx context.Context, name, parent string) (string, error)
	CreateFile(ctx context.Context, name, contentType, parent string, body io.Reader) (string, error)
	MakePublic(ctx context.Context, id string) error
	DeleteFile(ctx context.Context, id string) error
}

// DriveStore stores assets in Google Drive as publicly readable files.
type DriveStore struct {
	api    driveAPI
	root   string
	logger zerolog.Logger
}

// NewDriveStore exchanges the refresh token for an access token source and
// builds a Drive client.
func NewDriveStore(ctx context.Context, cfg DriveConfig) (*DriveStore, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, ErrNotConfigured
	}
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveScope},
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	srv, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("drive client: %w", err)
	}
	return newDriveStore(&driveService{srv: srv}, cfg.Root, cfg.Logger), nil
}

func newDriveStore(api driveAPI, root string, logger zerolog.Logger) *DriveStore {
	if root == "" {
		root = RootFolder
	}
	return &DriveStore{api: api, root: root, logger: logger}
}

// Upload places files under the target folder chain, creating missing
// folders, and returns their public URLs in input order.
func (s *DriveStore) Upload(ctx context.Context, files []File, target Target) ([]string, error) {
	if len(files) == 0 {
		return []string{}, nil
	}
	target.Root = s.root
	parent, err := s.ensureFolders(ctx, target.Folders())
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(files))
	for i, f := range files {
		name := target.FileName(f.Name, i+1)
		id, err := s.api.CreateFile(ctx, name, f.ContentType, parent, f.Body)
		if err != nil {
			obs.IncCounter(obs.AssetOperationsTotal, "upload", "error")
			return urls, fmt.Errorf("upload %s: %w", name, err)
		}
		if err := s.api.MakePublic(ctx, id); err != nil {
			obs.IncCounter(obs.AssetOperationsTotal, "upload", "error")
			return urls, fmt.Errorf("share %s: %w", name, err)
		}
		obs.IncCounter(obs.AssetOperationsTotal, "upload", "success")
		urls = append(urls, PublicURL(id))
	}
	s.logger.Info().Str("folder", target.Path()).Int("count", len(urls)).Msg("assets uploaded")
	return urls, nil
}

// Delete removes every file referenced by urls. Failures are counted, not returned.
func (s *DriveStore) Delete(ctx context.Context, urls []string) DeleteSummary {
	summary := DeleteSummary{Total: len(urls)}
	for _, raw := range urls {
		id, err := FileID(raw)
		if err == nil {
			err = s.api.DeleteFile(ctx, id)
		}
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", raw, err))
			obs.IncCounter(obs.AssetOperationsTotal, "delete", "error")
			continue
		}
		summary.Successful++
		obs.IncCounter(obs.AssetOperationsTotal, "delete", "success")
	}
	return summary
}

func (s *DriveStore) ensureFolders(ctx context.Context, chain []string) (string, error) {
	parent := "root"
	for _, name := range chain {
		id, err := s.api.FindFolder(ctx, name, parent)
		if err != nil {
			return "", fmt.Errorf("find folder %q: %w", name, err)
		}
		if id == "" {
			id, err = s.api.CreateFolder(ctx, name, parent)
			if err != nil {
				return "", fmt.Errorf("create folder %q: %w", name, err)
			}
		}
		parent = id
	}
	return parent, nil
}

// PublicURL renders the direct-view URL for a file id.
func PublicURL(id string) string {
	return publicURLBase + id
}

var pathID = regexp.MustCompile(`/d/([A-Za-z0-9_-]+)`)

// FileID extracts the Drive file id from a public or sharing URL.
func FileID(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !strings.HasSuffix(u.Host, "google.com") {
		return "", ErrInvalidURL
	}
	if id := u.Query().Get("id"); id != "" {
		return id, nil
	}
	if m := pathID.FindStringSubmatch(u.Path); m != nil {
		return m[1], nil
	}
	return "", ErrInvalidURL
}

type driveService struct {
	srv *drive.Service
}

func (d *driveService) FindFolder(ctx context.Context, name, parent string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and '%s' in parents and trashed = false",
		escapeQuery(name), folderMimeType, escapeQuery(parent))
	res, err := d.srv.Files.List().Q(q).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if len(res.Files) == 0 {
		return "", nil
	}
	return res.Files[0].Id, nil
}

func (d *driveService) CreateFolder(ctx context.Context, name, parent string) (string, error) {
	f, err := d.srv.Files.Create(&drive.File{Name: name, MimeType: folderMimeType, Parents: []string{parent}}).
		Fields("id").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return f.Id, nil
}

func (d *driveService) CreateFile(ctx context.Context, name, contentType, parent string, body io.Reader) (string, error) {
	call := d.srv.Files.Create(&drive.File{Name: name, Parents: []string{parent}})
	if contentType != "" {
		call = call.Media(body, googleapi.ContentType(contentType))
	} else {
		call = call.Media(body)
	}
	f, err := call.Fields("id").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return f.Id, nil
}

func (d *driveService) MakePublic(ctx context.Context, id string) error {
	_, err := d.srv.Permissions.Create(id, &drive.Permission{Type: "anyone", Role: "reader"}).Context(ctx).Do()
	return err
}

func (d *driveService) DeleteFile(ctx context.Context, id string) error {
	return d.srv.Files.Delete(id).Context(ctx).Do()
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

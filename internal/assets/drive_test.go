package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeDrive struct {
	folders  map[string]string
	created  []string
	files    map[string]string
	public   map[string]bool
	deleted  []string
	failFile string
	nextID   int
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{folders: map[string]string{}, files: map[string]string{}, public: map[string]bool{}}
}

func (f *fakeDrive) id() string {
	f.nextID++
	return fmt.Sprintf("id%d", f.nextID)
}

func (f *fakeDrive) FindFolder(_ context.Context, name, parent string) (string, error) {
	return f.folders[parent+"/"+name], nil
}

func (f *fakeDrive) CreateFolder(_ context.Context, name, parent string) (string, error) {
	id := f.id()
	f.folders[parent+"/"+name] = id
	f.created = append(f.created, name)
	return id, nil
}

func (f *fakeDrive) CreateFile(_ context.Context, name, _, parent string, body io.Reader) (string, error) {
	if name == f.failFile {
		return "", errors.New("quota exceeded")
	}
	data, _ := io.ReadAll(body)
	id := f.id()
	f.files[id] = parent + "/" + name + ":" + string(data)
	return id, nil
}

func (f *fakeDrive) MakePublic(_ context.Context, id string) error {
	f.public[id] = true
	return nil
}

func (f *fakeDrive) DeleteFile(_ context.Context, id string) error {
	if _, ok := f.files[id]; !ok {
		return errors.New("404 file not found")
	}
	delete(f.files, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func TestDriveStoreUploadCreatesFolderChainOnce(t *testing.T) {
	api := newFakeDrive()
	store := newDriveStore(api, "", zerolog.Nop())
	target := Target{Parent: "Rings", Category: "Solitaire", ItemName: "Aria Ring"}

	urls, err := store.Upload(context.Background(), []File{
		{Name: "front.JPG", ContentType: "image/jpeg", Body: strings.NewReader("a")},
		{Name: "side.png", ContentType: "image/png", Body: strings.NewReader("b")},
	}, target)
	require.NoError(t, err)
	require.Len(t, urls, 2)
	require.Equal(t, []string{RootFolder, "Rings", "Solitaire"}, api.created)

	id, err := FileID(urls[0])
	require.NoError(t, err)
	require.True(t, api.public[id])
	require.Contains(t, api.files[id], "/Aria_Ring_1.jpg:a")

	_, err = store.Upload(context.Background(), []File{{Name: "x.png", Body: strings.NewReader("c")}}, target)
	require.NoError(t, err)
	require.Len(t, api.created, 3)
}

func TestDriveStoreUploadStopsOnFailure(t *testing.T) {
	api := newFakeDrive()
	api.failFile = "Bangle_2.jpg"
	store := newDriveStore(api, "Root", zerolog.Nop())

	urls, err := store.Upload(context.Background(), []File{
		{Name: "a.jpg", Body: strings.NewReader("a")},
		{Name: "b.jpg", Body: strings.NewReader("b")},
	}, Target{ItemName: "Bangle"})
	require.Error(t, err)
	require.Len(t, urls, 1)
}

func TestDriveStoreDeleteSummarises(t *testing.T) {
	api := newFakeDrive()
	store := newDriveStore(api, "", zerolog.Nop())
	urls, err := store.Upload(context.Background(), []File{{Name: "a.jpg", Body: strings.NewReader("a")}}, Target{})
	require.NoError(t, err)

	summary := store.Delete(context.Background(), []string{urls[0], "https://example.com/nope.jpg", PublicURL("missing")})
	require.Equal(t, 3, summary.Total)
	require.Equal(t, 1, summary.Successful)
	require.Equal(t, 2, summary.Failed)
	require.Len(t, summary.Errors, 2)
}

func TestFileID(t *testing.T) {
	cases := []struct {
		url  string
		want string
		err  bool
	}{
		{url: PublicURL("abc_123"), want: "abc_123"},
		{url: "https://drive.google.com/file/d/XyZ-9/view?usp=sharing", want: "XyZ-9"},
		{url: "https://drive.google.com/open?id=Q1", want: "Q1"},
		{url: "https://cdn.example.com/a.jpg?id=1", err: true},
		{url: "https://drive.google.com/drive/folders", err: true},
	}
	for _, tc := range cases {
		got, err := FileID(tc.url)
		if tc.err {
			require.ErrorIs(t, err, ErrInvalidURL, tc.url)
			continue
		}
		require.NoError(t, err, tc.url)
		require.Equal(t, tc.want, got)
	}
}

func TestTargetNaming(t *testing.T) {
	require.Equal(t, RootFolder, Target{}.Path())
	require.Equal(t, RootFolder+"/Rings/Bands", Target{Parent: "Rings", Category: " Bands "}.Path())
	require.Equal(t, RootFolder+"/Bands", Target{Category: "Bands"}.Path())
	require.Equal(t, "Rose_Gold_Band_3.png", Target{ItemName: "Rose Gold Band"}.FileName("IMG.PNG", 3))
	require.Equal(t, "cover.webp", Target{}.FileName("cover.webp", 1))
}

func TestNewDriveStoreRequiresCredentials(t *testing.T) {
	_, err := NewDriveStore(context.Background(), DriveConfig{ClientID: "id"})
	require.ErrorIs(t, err, ErrNotConfigured)
}

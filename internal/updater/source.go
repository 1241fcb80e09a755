package updater

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creativeprojects/go-selfupdate"
)

// Release is a published build that can replace the running binary.
type Release struct {
	Version     string
	Notes       string
	URL         string
	PublishedAt time.Time
	AssetSize   int
	Newer       bool // newer than the version passed to Latest

	raw *selfupdate.Release
}

// Source finds and installs releases.
type Source interface {
	Latest(ctx context.Context, current string) (*Release, bool, error)
	Install(ctx context.Context, rel *Release, execPath string) error
}

type githubSource struct {
	updater *selfupdate.Updater
	repo    selfupdate.Repository
}

// NewGitHubSource reads releases of slug ("owner/name") from GitHub.
// Assets are verified against the release's checksums.txt.
func NewGitHubSource(slug string, prerelease bool) (Source, error) {
	gh, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub source: %w", err)
	}
	up, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:     gh,
		Validator:  &selfupdate.ChecksumValidator{UniqueFilename: "checksums.txt"},
		Prerelease: prerelease,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}
	return &githubSource{updater: up, repo: selfupdate.ParseSlug(slug)}, nil
}

func (g *githubSource) Latest(ctx context.Context, current string) (*Release, bool, error) {
	rel, found, err := g.updater.DetectLatest(ctx, g.repo)
	if err != nil || !found {
		return nil, found, err
	}
	return &Release{
		Version:     rel.Version(),
		Notes:       rel.ReleaseNotes,
		URL:         rel.URL,
		PublishedAt: rel.PublishedAt,
		AssetSize:   rel.AssetByteSize,
		Newer:       current == "dev" || rel.GreaterThan(current),
		raw:         rel,
	}, true, nil
}

func (g *githubSource) Install(ctx context.Context, rel *Release, execPath string) error {
	if rel.raw == nil {
		return errors.New("release was not detected by this source")
	}
	return g.updater.UpdateTo(ctx, rel.raw, execPath)
}

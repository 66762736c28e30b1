package updates

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Version is the running release, compared against the latest GitHub
// release tag.
const Version = "1.0.0"

// Info describes the result of an update check.
type Info struct {
	LocalVersion  string `json:"local_version"`
	LatestVersion string `json:"latest_version"`
	HasUpdate     bool   `json:"has_update"`
	Notes         string `json:"notes"`
	RepoURL       string `json:"repo_url"`
	ReleaseURL    string `json:"release_url"`
	AssetURL      string `json:"asset_url"`
}

type githubRelease struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
	Body    string `json:"body"`
	Assets  []struct {
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

var client = &http.Client{Timeout: 12 * time.Second}

// Check queries the GitHub releases/latest endpoint for repo
// ("owner/name"). A 404 means no release has been published yet and is
// not an error. An empty repo returns nil.
func Check(repo, token string) (*Info, error) {
	if repo == "" {
		return nil, nil
	}

	info := &Info{
		LocalVersion: Version,
		RepoURL:      "https://github.com/" + repo,
		ReleaseURL:   "https://github.com/" + repo + "/releases/latest",
	}

	req, err := http.NewRequest(http.MethodGet, "https://api.github.com/repos/"+repo+"/releases/latest", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "DotStatus")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		info.Notes = "No releases published yet on GitHub."
		return info, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github api returned %d", resp.StatusCode)
	}

	var rel githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, err
	}

	latest := strings.TrimSpace(rel.TagName)
	if latest == "" {
		latest = strings.TrimSpace(rel.Name)
	}
	info.LatestVersion = latest
	info.Notes = strings.TrimSpace(rel.Body)
	info.HasUpdate = isNewer(latest, Version)
	if len(rel.Assets) > 0 {
		info.AssetURL = strings.TrimSpace(rel.Assets[0].BrowserDownloadURL)
	}
	return info, nil
}

var versionRe = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)`)

// normVer parses "v1.2.3"-style strings; anything unparseable is 0.0.0.
func normVer(v string) [3]int {
	v = strings.TrimSpace(v)
	if len(v) > 0 && (v[0] == 'v' || v[0] == 'V') {
		v = v[1:]
	}
	m := versionRe.FindStringSubmatch(v)
	if m == nil {
		return [3]int{}
	}
	var out [3]int
	for i := 0; i < 3; i++ {
		out[i], _ = strconv.Atoi(m[i+1])
	}
	return out
}

func isNewer(remote, local string) bool {
	r, l := normVer(remote), normVer(local)
	for i := 0; i < 3; i++ {
		if r[i] != l[i] {
			return r[i] > l[i]
		}
	}
	return false
}

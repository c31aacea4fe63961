package endpoint

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/flagsnap/pkg/feed"
)

// Fixed application and device attributes sent with every dynamic request.
const (
	AppID   = "company.thebrowser.dia"
	AppName = "Dia"

	appLocale            = "en-US"
	envAttributesVersion = "1.0"

	deviceManufacturer = "Apple"
	osFamily           = "Apple"
	osName             = "macOS"
	osVersion          = "15.0"

	contextKind = "multi"

	// fallbackBuildNumber is sent when the feed build number is not an integer.
	fallbackBuildNumber = 1
)

// Identity holds the opaque keys identifying the user, device and
// application to the flag service. Values are validated for presence only.
type Identity struct {
	UserKey     string
	DeviceKey   string
	DeviceModel string
	AppKey      string
}

type payload struct {
	Kind        string             `json:"kind"`
	User        userContext        `json:"user"`
	Application applicationContext `json:"ld_application"`
	Device      deviceContext      `json:"ld_device"`
}

type userContext struct {
	Key         string `json:"key"`
	BuildNumber int    `json:"buildNumber"`
	Version     string `json:"version"`
	Timestamp   int64  `json:"timestamp"`
}

type applicationContext struct {
	Key                  string `json:"key"`
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Version              string `json:"version"`
	VersionName          string `json:"versionName"`
	Locale               string `json:"locale"`
	EnvAttributesVersion string `json:"envAttributesVersion"`
}

type deviceContext struct {
	Key                  string    `json:"key"`
	Manufacturer         string    `json:"manufacturer"`
	Model                string    `json:"model"`
	OS                   osContext `json:"os"`
	EnvAttributesVersion string    `json:"envAttributesVersion"`
}

type osContext struct {
	Family  string `json:"family"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// PseudoVersion concatenates the major, minor and patch components of a
// dot-separated version without separators. Missing or non-numeric
// components count as 0, so "1.4" becomes "140".
func PseudoVersion(shortVersion string) string {
	parts := strings.SplitN(strings.TrimSpace(shortVersion), ".", 4)

	var sb strings.Builder
	for i := range 3 {
		n := 0
		if i < len(parts) {
			if v, err := strconv.Atoi(strings.TrimSpace(parts[i])); err == nil && v >= 0 {
				n = v
			}
		}
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}

// TagsHeader builds the identifying-tags header for a release.
func TagsHeader(info *feed.BuildInfo) string {
	return strings.Join([]string{
		"application-id/" + AppID,
		"application-name/" + AppName,
		"application-version/" + info.BuildNumber,
		"application-version-name/" + info.ShortVersion,
	}, " ")
}

// Derive builds the dynamic descriptor for a release: the JSON context
// payload is base64url-encoded and appended to baseURL.
func Derive(info *feed.BuildInfo, id Identity, baseURL, auth string, now time.Time) (*Descriptor, error) {
	buildNumber, err := strconv.Atoi(strings.TrimSpace(info.BuildNumber))
	if err != nil {
		buildNumber = fallbackBuildNumber
	}

	p := payload{
		Kind: contextKind,
		User: userContext{
			Key:         id.UserKey,
			BuildNumber: buildNumber,
			Version:     PseudoVersion(info.ShortVersion),
			Timestamp:   now.UnixMilli(),
		},
		Application: applicationContext{
			Key:                  id.AppKey,
			ID:                   AppID,
			Name:                 AppName,
			Version:              info.BuildNumber,
			VersionName:          info.ShortVersion,
			Locale:               appLocale,
			EnvAttributesVersion: envAttributesVersion,
		},
		Device: deviceContext{
			Key:          id.DeviceKey,
			Manufacturer: deviceManufacturer,
			Model:        id.DeviceModel,
			OS: osContext{
				Family:  osFamily,
				Name:    osName,
				Version: osVersion,
			},
			EnvAttributesVersion: envAttributesVersion,
		},
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding context payload: %w", err)
	}

	return &Descriptor{
		URL:        baseURL + base64.URLEncoding.EncodeToString(raw),
		AuthHeader: auth,
		TagsHeader: TagsHeader(info),
	}, nil
}

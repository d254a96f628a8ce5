package browser

import (
	"fmt"
	"math/rand/v2"
)

// Profile is the outbound identity of one browser session. Fields are
// internally consistent: UA, platform, Client Hints and locale describe the
// same virtual machine.
type Profile struct {
	UserAgent           string
	Brands              [][2]string // [brand, majorVersion]
	FullVersionList     [][2]string // [brand, fullVersion]
	Platform            string      // Client Hints platform (e.g. "Windows")
	PlatformVersion     string
	Architecture        string
	Bitness             string
	NavigatorPlatform   string
	AcceptLanguage      string
	Locale              string
	HardwareConcurrency int64
	ScreenWidth         int
	ScreenHeight        int
	TimezoneID          string
}

type platformPreset struct {
	uaOS              string // OS fragment inside the UA string
	navigatorPlatform string
	chPlatform        string
	chPlatformVersion string
	architecture      string
	bitness           string
}

var platformPresets = []platformPreset{
	{"Windows NT 10.0; Win64; x64", "Win32", "Windows", "10.0.0", "x86", "64"},
	{"Windows NT 10.0; Win64; x64", "Win32", "Windows", "15.0.0", "x86", "64"},
	{"Macintosh; Intel Mac OS X 10_15_7", "MacIntel", "macOS", "14.5.0", "arm", "64"},
	{"X11; Linux x86_64", "Linux x86_64", "Linux", "6.5.0", "x86", "64"},
}

var screenPresets = [][2]int{
	{1920, 1080},
	{2560, 1440},
	{1366, 768},
	{1536, 864},
	{1680, 1050},
}

type localePreset struct {
	timezoneID     string
	acceptLanguage string
	locale         string
}

var localePresets = []localePreset{
	{"America/New_York", "en-US,en;q=0.9", "en-US"},
	{"America/Chicago", "en-US,en;q=0.9", "en-US"},
	{"America/Los_Angeles", "en-US,en;q=0.9", "en-US"},
	{"Europe/London", "en-GB,en;q=0.9,en-US;q=0.8", "en-GB"},
}

type chromeVersion struct {
	major string
	full  string
}

var chromeVersions = []chromeVersion{
	{"131", "131.0.0.0"},
	{"132", "132.0.0.0"},
	{"133", "133.0.0.0"},
}

var hardwareConcurrencies = []int64{4, 8, 12, 16}
var greaseBrands = []string{`Not A(Brand`, `Not/A)Brand`, `Not_A Brand`}

// NewProfile builds a randomized identity. Each Launch calls it once and the
// result is fixed for the lifetime of that session.
func NewProfile() *Profile {
	plat := platformPresets[rand.IntN(len(platformPresets))]
	scr := screenPresets[rand.IntN(len(screenPresets))]
	loc := localePresets[rand.IntN(len(localePresets))]
	ver := chromeVersions[rand.IntN(len(chromeVersions))]
	grease := greaseBrands[rand.IntN(len(greaseBrands))]

	return &Profile{
		UserAgent: fmt.Sprintf(
			"Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s Safari/537.36",
			plat.uaOS, ver.full,
		),
		Brands: [][2]string{
			{grease, "8"},
			{"Chromium", ver.major},
			{"Google Chrome", ver.major},
		},
		FullVersionList: [][2]string{
			{grease, "8.0.0.0"},
			{"Chromium", ver.full},
			{"Google Chrome", ver.full},
		},
		Platform:            plat.chPlatform,
		PlatformVersion:     plat.chPlatformVersion,
		Architecture:        plat.architecture,
		Bitness:             plat.bitness,
		NavigatorPlatform:   plat.navigatorPlatform,
		AcceptLanguage:      loc.acceptLanguage,
		Locale:              loc.locale,
		HardwareConcurrency: hardwareConcurrencies[rand.IntN(len(hardwareConcurrencies))],
		ScreenWidth:         scr[0],
		ScreenHeight:        scr[1],
		TimezoneID:          loc.timezoneID,
	}
}

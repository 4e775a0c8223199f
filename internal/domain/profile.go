package domain

import "time"

type Platform string

const (
	PlatformPC          Platform = "pc"
	PlatformPlayStation Platform = "playstation"
	PlatformXbox        Platform = "xbox"
	PlatformSwitch      Platform = "switch"
)

// AllPlatforms is ordered the way the profile form lists them.
var AllPlatforms = []Platform{PlatformPC, PlatformPlayStation, PlatformXbox, PlatformSwitch}

func ParsePlatform(s string) (Platform, bool) {
	for _, p := range AllPlatforms {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

func (p Platform) Label() string {
	switch p {
	case PlatformPC:
		return "PC"
	case PlatformPlayStation:
		return "Playstation"
	case PlatformXbox:
		return "Xbox"
	case PlatformSwitch:
		return "Nintendo Switch"
	default:
		return string(p)
	}
}

type Platforms struct {
	PC          bool `json:"pc"`
	PlayStation bool `json:"playstation"`
	Xbox        bool `json:"xbox"`
	Switch      bool `json:"switch"`
}

func (p Platforms) Owns(platform Platform) bool {
	switch platform {
	case PlatformPC:
		return p.PC
	case PlatformPlayStation:
		return p.PlayStation
	case PlatformXbox:
		return p.Xbox
	case PlatformSwitch:
		return p.Switch
	default:
		return false
	}
}

var Timezones = []string{
	"Eastern (UTC-5)",
	"Central (UTC-6)",
	"Mountain (UTC-7)",
	"Pacific (UTC-8)",
}

func ValidTimezone(s string) bool {
	for _, tz := range Timezones {
		if tz == s {
			return true
		}
	}
	return false
}

type Avatar struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Image string `json:"image"`
}

var Avatars = []Avatar{
	{Key: "knight", Label: "Knight", Image: "/app/static/avatars/knight.svg"},
	{Key: "mage", Label: "Mage", Image: "/app/static/avatars/mage.svg"},
	{Key: "ranger", Label: "Ranger", Image: "/app/static/avatars/ranger.svg"},
	{Key: "pilot", Label: "Pilot", Image: "/app/static/avatars/pilot.svg"},
	{Key: "robot", Label: "Robot", Image: "/app/static/avatars/robot.svg"},
	{Key: "slime", Label: "Slime", Image: "/app/static/avatars/slime.svg"},
}

func FindAvatar(key string) (Avatar, bool) {
	for _, a := range Avatars {
		if a.Key == key {
			return a, true
		}
	}
	return Avatar{}, false
}

type Profile struct {
	ID        string     `json:"id"`
	Platforms Platforms  `json:"platforms"`
	Gamertag  string     `json:"gamertag"`
	Timezone  string     `json:"timezone"`
	Avatar    string     `json:"avatar"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	// Exists is false when no row has been written for the user yet.
	Exists bool `json:"exists"`
}

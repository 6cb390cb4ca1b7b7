package feed

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Mode selects the feed ranking strategy.
type Mode string

const (
	ModeForYou    Mode = "forYou"
	ModePopular   Mode = "popular"
	ModeFollowing Mode = "following"
)

// ParseMode falls back to forYou for any unrecognized value.
func ParseMode(s string) Mode {
	switch s {
	case string(ModePopular):
		return ModePopular
	case string(ModeFollowing):
		return ModeFollowing
	default:
		return ModeForYou
	}
}

const (
	popularWindow     = 48 * time.Hour
	popularFetchLimit = 200
	recentFetchLimit  = 80
	forYouFetchLimit  = 200
	forYouResultLimit = 120
	likeHistoryLimit  = 60
	topTagLimit       = 12

	// Floor on post age so brand-new posts don't blow up the decay
	// denominator.
	minAgeHours = 0.25
)

// hashtagPattern matches "#" followed by 2-30 Unicode letter, digit or
// underscore runes.
var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]{2,30})`)

// ExtractHashtags returns every hashtag occurrence in body, lowercased.
// Repeated tags appear once per occurrence.
func ExtractHashtags(body string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, strings.ToLower(m[1]))
	}
	return tags
}

// TagProfile builds the viewer's interest profile from the bodies of
// their recently liked posts: a tag→count frequency map trimmed to the
// topTagLimit most frequent tags. Ties break by count descending, then
// tag ascending, so the result is deterministic.
func TagProfile(likedBodies []string) map[string]int {
	freq := map[string]int{}
	for _, body := range likedBodies {
		for _, tag := range ExtractHashtags(body) {
			freq[tag]++
		}
	}
	if len(freq) <= topTagLimit {
		return freq
	}

	type tagCount struct {
		tag   string
		count int
	}
	all := make([]tagCount, 0, len(freq))
	for tag, count := range freq {
		all = append(all, tagCount{tag, count})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].tag < all[j].tag
	})

	top := make(map[string]int, topTagLimit)
	for _, tc := range all[:topTagLimit] {
		top[tc.tag] = tc.count
	}
	return top
}

// MatchWeight sums, over the distinct tags shared between the
// candidate body and the profile, the profile frequency of each tag.
func MatchWeight(body string, profile map[string]int) int {
	if len(profile) == 0 {
		return 0
	}
	seen := map[string]bool{}
	match := 0
	for _, tag := range ExtractHashtags(body) {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		match += profile[tag]
	}
	return match
}

func ageHours(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt).Hours()
	if age < minAgeHours {
		return minAgeHours
	}
	return age
}

// PopularScore ranks recent posts by likes with age decay.
func PopularScore(likes int64, age float64) float64 {
	return float64(likes) / math.Pow(age+2, 1.35)
}

// ForYouScore blends hashtag interest match, like-decay and freshness.
func ForYouScore(match int, likes int64, age float64) float64 {
	return float64(match)*3 + float64(likes)/math.Pow(age+2, 1.6) + 1/(age+1)
}

// sortByScoreStable orders views by score descending, preserving the
// incoming (creation-time descending) order among equal scores.
func sortByScoreStable(views []PostView, scores []float64) {
	type pair struct {
		view  PostView
		score float64
	}
	pairs := make([]pair, len(views))
	for i := range views {
		pairs[i] = pair{views[i], scores[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].score > pairs[j].score
	})
	for i := range pairs {
		views[i] = pairs[i].view
	}
}

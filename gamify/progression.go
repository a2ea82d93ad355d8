package gamify

import "math"

// Rank is the coarse tier derived from level.
type Rank string

const (
	RankNovice  Rank = "Novice"
	RankSoldier Rank = "Soldier"
	RankElite   Rank = "Elite"
	RankTitan   Rank = "Titan"
)

// rankThresholds is ordered highest first; the first floor a level reaches wins.
var rankThresholds = []struct {
	minLevel int
	rank     Rank
}{
	{70, RankTitan},
	{30, RankElite},
	{10, RankSoldier},
	{1, RankNovice},
}

// Order returns the rank's position, Novice=0 through Titan=3. Unknown ranks
// sort below Novice.
func (r Rank) Order() int {
	switch r {
	case RankNovice:
		return 0
	case RankSoldier:
		return 1
	case RankElite:
		return 2
	case RankTitan:
		return 3
	}
	return -1
}

// RankForLevel maps a level to its rank.
func RankForLevel(level int) Rank {
	for _, t := range rankThresholds {
		if level >= t.minLevel {
			return t.rank
		}
	}
	return RankNovice
}

// XPForNextLevel is the XP needed to go from level to level+1:
// floor(100 * level^1.5).
func XPForNextLevel(level int) int {
	if level < 1 {
		return 0
	}
	return int(math.Floor(100 * math.Pow(float64(level), 1.5)))
}

// TotalXPForLevel is the cumulative XP needed to reach level from zero.
// Level 1 needs 0.
func TotalXPForLevel(level int) int {
	total := 0
	for i := 1; i < level; i++ {
		total += XPForNextLevel(i)
	}
	return total
}

// MaxTotalXP is the ceiling on cumulative XP. Awards past it are absorbed,
// and levels are computed as if the player sat exactly on it.
const MaxTotalXP = 1_000_000_000

// LevelForXP returns the highest level whose cumulative requirement is at
// most totalXP. It walks the same XPForNextLevel steps TotalXPForLevel sums,
// so the two always agree below MaxTotalXP.
func LevelForXP(totalXP int) int {
	totalXP = min(totalXP, MaxTotalXP)
	level := 1
	reached := 0
	for {
		next := reached + XPForNextLevel(level)
		if next > totalXP || next <= reached {
			return level
		}
		reached = next
		level++
	}
}

// LevelProgressPercent is how far totalXP is into its current level, 0-100.
func LevelProgressPercent(totalXP int) int {
	totalXP = min(max(totalXP, 0), MaxTotalXP)
	level := LevelForXP(totalXP)
	into := totalXP - TotalXPForLevel(level)
	return int(math.Round(100 * float64(into) / float64(XPForNextLevel(level))))
}

// StreakBonus is the XP tier for a run of consecutive goal days.
func StreakBonus(days int) int {
	switch {
	case days >= 30:
		return 100
	case days >= 14:
		return 50
	case days >= 7:
		return 25
	case days >= 3:
		return 10
	}
	return 0
}

/* ─── Player state ───────────────────────────────────────────────────── */

// Player is the persisted game state. Level and rank are never stored here;
// they are always derived from TotalXP.
type Player struct {
	TotalXP   int `json:"total_xp"`
	CurrentHP int `json:"current_hp"`
	MaxHP     int `json:"max_hp"`
}

// Level derives the player's level from TotalXP.
func (p Player) Level() int { return LevelForXP(p.TotalXP) }

// Rank derives the player's rank from TotalXP.
func (p Player) Rank() Rank { return RankForLevel(p.Level()) }

// Advancement is the player state after applying one meal's XP and HP.
type Advancement struct {
	XPAwarded       int  `json:"xp_awarded"`
	HPChange        int  `json:"hp_change"`
	TotalXP         int  `json:"total_xp"`
	PreviousLevel   int  `json:"previous_level"`
	Level           int  `json:"level"`
	PreviousRank    Rank `json:"previous_rank"`
	Rank            Rank `json:"rank"`
	ProgressPercent int  `json:"progress_percent"`
	CurrentHP       int  `json:"current_hp"`
	MaxHP           int  `json:"max_hp"`
	LeveledUp       bool `json:"leveled_up"`
	RankedUp        bool `json:"ranked_up"`
}

// Player returns the persisted state after the advancement.
func (a Advancement) Player() Player {
	return Player{TotalXP: a.TotalXP, CurrentHP: a.CurrentHP, MaxHP: a.MaxHP}
}

// Advance applies an XP award and HP change to p. The award must not be
// negative, so total XP never decreases; it saturates at MaxTotalXP. HP is
// clamped to [0, MaxHP].
func Advance(p Player, xpAward, hpChange int) (Advancement, error) {
	if xpAward < 0 {
		return Advancement{}, invalidf("xp award must not be negative")
	}
	if p.TotalXP < 0 {
		return Advancement{}, invalidf("total_xp must not be negative")
	}
	if p.MaxHP <= 0 {
		return Advancement{}, invalidf("max_hp must be positive")
	}

	prevLevel := p.Level()
	total := p.TotalXP
	if total < MaxTotalXP {
		total += min(xpAward, MaxTotalXP-total)
	}
	level := LevelForXP(total)
	rank := RankForLevel(level)
	prevRank := RankForLevel(prevLevel)

	return Advancement{
		XPAwarded:       xpAward,
		HPChange:        hpChange,
		TotalXP:         total,
		PreviousLevel:   prevLevel,
		Level:           level,
		PreviousRank:    prevRank,
		Rank:            rank,
		ProgressPercent: LevelProgressPercent(total),
		CurrentHP:       ClampHP(p.CurrentHP, hpChange, p.MaxHP),
		MaxHP:           p.MaxHP,
		LeveledUp:       level > prevLevel,
		RankedUp:        rank.Order() > prevRank.Order(),
	}, nil
}

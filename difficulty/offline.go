// Package difficulty implements the Adaptive Difficulty Engine (C4): an
// offline per-quiz distribution recommendation computed from a learner's
// performance history, and an online intra-quiz adjustment computed from
// the answers given so far in the current attempt.
package difficulty

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"quizcore/models"
)

// Recommend computes the offline distribution recommendation (spec.md
// §4.4.1) from a learner's performance data.
func Recommend(data models.PerformanceData, subject string, requested models.RequestedDifficulty) models.DifficultyRecommendation {
	performanceScore := performanceScore(data)
	consistencyScore := consistencyScore(data.RecentScores)
	improvementTrend := improvementTrend(data.RecentScores)
	subjectFamiliarity := subjectFamiliarity(data)

	var dist models.DifficultyDistribution
	var reasoning []string
	if requested != models.RequestedMixed && requested != models.RequestedNone {
		dist = fixedLevelTable(requested, performanceScore)
		reasoning = append(reasoning, fmt.Sprintf("requested difficulty %q applied directly at performance score %d", requested, performanceScore))
	} else {
		dist, reasoning = distributionFromFactors(performanceScore, consistencyScore, improvementTrend, subjectFamiliarity)
	}

	return models.DifficultyRecommendation{
		Distribution:       dist,
		Reasoning:          reasoning,
		ConfidenceLevel:    confidence(data.TotalQuizzes, len(data.RecentScores)),
		SuggestedTopics:    nil,
		PerformanceScore:   performanceScore,
		ConsistencyScore:   consistencyScore,
		ImprovementTrend:   improvementTrend,
		SubjectFamiliarity: subjectFamiliarity,
	}
}

// performanceScore is spec.md §4.4.1 factor 1.
func performanceScore(data models.PerformanceData) int {
	if data.HasSubjectHistory && data.TotalSubjectQuizzes >= 2 {
		return roundInt(0.3*data.GlobalAverage + 0.7*data.SubjectAverage)
	}
	return roundInt(data.GlobalAverage)
}

// consistencyScore is spec.md §4.4.1 factor 2: clamp(100 - 2.5*stdev, 0, 100)
// over the most recent 5 scores, population variance/stdev.
func consistencyScore(recent []models.RecentAttempt) int {
	window := recent
	if len(window) > 5 {
		window = window[:5]
	}
	if len(window) < 2 {
		return 50
	}

	scores := make([]float64, len(window))
	for i, r := range window {
		scores[i] = r.Score
	}

	variance, err := stats.PopulationVariance(scores)
	if err != nil {
		return 50
	}
	stdev := math.Sqrt(variance)
	return clampInt(roundInt(100-2.5*stdev), 0, 100)
}

// improvementTrend is spec.md §4.4.1 factor 3: from the 5 newest (desc by
// date), mean(first 2) - mean(last n-2), clamped to [-50, 50].
func improvementTrend(recent []models.RecentAttempt) int {
	if len(recent) < 3 {
		return 0
	}

	window := append([]models.RecentAttempt(nil), recent...)
	if len(window) > 5 {
		window = window[:5]
	}
	sort.SliceStable(window, func(i, j int) bool { return window[i].Date.After(window[j].Date) })

	firstTwo := mean(window[0].Score, window[1].Score)
	rest := window[2:]
	restSum := 0.0
	for _, r := range rest {
		restSum += r.Score
	}
	restMean := restSum / float64(len(rest))

	trend := firstTwo - restMean
	return clampInt(roundInt(trend), -50, 50)
}

// subjectFamiliarity is spec.md §4.4.1 factor 4.
func subjectFamiliarity(data models.PerformanceData) int {
	if !data.HasSubjectHistory {
		return 0
	}
	attemptsFactor := math.Min(100, 10*float64(data.TotalSubjectQuizzes))
	recencyFactor := clampFloat(100-2*float64(data.DaysSinceLastQuiz), 20, 100)
	return roundInt(0.7*attemptsFactor + 0.3*recencyFactor)
}

// distributionFromFactors implements the performance-bucketed baseline plus
// the sequential adjustments and clamp-then-steal-from-larger finishing
// step described in spec.md §4.4.1.
func distributionFromFactors(performanceScore, consistencyScore, improvementTrend, subjectFamiliarity int) (models.DifficultyDistribution, []string) {
	easy, medium, hard := baseline(performanceScore)
	reasoning := []string{fmt.Sprintf("baseline distribution for performance score %d: easy=%d medium=%d hard=%d", performanceScore, easy, medium, hard)}

	if consistencyScore < 30 {
		easy += 10
		hard -= 10
		reasoning = append(reasoning, "low consistency: shifted toward easier questions")
	} else if consistencyScore > 80 {
		hard += 5
		easy -= 5
		reasoning = append(reasoning, "high consistency: shifted toward harder questions")
	}

	if improvementTrend > 20 {
		hard += 5
		medium += 5
		easy -= 10
		reasoning = append(reasoning, "strong upward trend: shifted toward harder questions")
	} else if improvementTrend < -20 {
		easy += 10
		hard -= 10
		reasoning = append(reasoning, "downward trend: shifted toward easier questions")
	}

	if subjectFamiliarity < 20 {
		easy += 15
		medium += 5
		hard -= 20
		reasoning = append(reasoning, "low subject familiarity: shifted toward easier questions")
	} else if subjectFamiliarity > 80 {
		hard += 10
		easy -= 10
		reasoning = append(reasoning, "high subject familiarity: shifted toward harder questions")
	}

	easy = clampInt(easy, 10, 80)
	hard = clampInt(hard, 5, 60)
	medium = 100 - easy - hard

	if medium < 10 {
		shortfall := 10 - medium
		if easy >= hard {
			easy -= shortfall
		} else {
			hard -= shortfall
		}
		medium = 10
		reasoning = append(reasoning, "medium share floored at 10%, shortfall taken from the larger of easy/hard")
	}

	return models.DifficultyDistribution{Easy: easy, Medium: medium, Hard: hard}, reasoning
}

func baseline(performanceScore int) (easy, medium, hard int) {
	switch {
	case performanceScore < 40:
		return 70, 25, 5
	case performanceScore < 60:
		return 50, 40, 10
	case performanceScore < 75:
		return 35, 45, 20
	case performanceScore < 85:
		return 25, 50, 25
	default:
		return 15, 40, 45
	}
}

// fixedLevelTable implements the requestedDifficulty-names-a-level tables.
func fixedLevelTable(requested models.RequestedDifficulty, performanceScore int) models.DifficultyDistribution {
	switch requested {
	case models.RequestedEasy:
		if performanceScore < 50 {
			return models.DifficultyDistribution{Easy: 90, Medium: 10, Hard: 0}
		}
		return models.DifficultyDistribution{Easy: 80, Medium: 15, Hard: 5}
	case models.RequestedMedium:
		switch {
		case performanceScore < 50:
			return models.DifficultyDistribution{Easy: 40, Medium: 50, Hard: 10}
		case performanceScore > 80:
			return models.DifficultyDistribution{Easy: 10, Medium: 70, Hard: 20}
		default:
			return models.DifficultyDistribution{Easy: 20, Medium: 70, Hard: 10}
		}
	case models.RequestedHard:
		if performanceScore < 60 {
			return models.DifficultyDistribution{Easy: 20, Medium: 50, Hard: 30}
		}
		return models.DifficultyDistribution{Easy: 5, Medium: 35, Hard: 60}
	default:
		return models.DifficultyDistribution{Easy: 35, Medium: 45, Hard: 20}
	}
}

func confidence(totalQuizzes, recentCount int) models.ConfidenceLevel {
	switch {
	case totalQuizzes < 3 || recentCount < 2:
		return models.ConfidenceLow
	case totalQuizzes < 8 || recentCount < 4:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceHigh
	}
}

func mean(values ...float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func roundInt(f float64) int {
	return int(math.Round(f))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package difficulty

import (
	"github.com/montanaflynn/stats"

	"quizcore/models"
)

// AdjustOnline implements spec.md §4.4.2: the intra-quiz adjustment computed
// from the answers already given in the current attempt.
func AdjustOnline(answers []models.GradedAnswer, remainingQuestions int) models.OnlineAdjustmentResult {
	if len(answers) < 2 {
		return models.OnlineAdjustmentResult{Adjustment: models.AdjustMaintain, AdjustmentScore: 0}
	}

	overallAccuracy := accuracy(answers)
	recentWindow := lastN(answers, 5)
	recentAccuracy := accuracy(recentWindow)

	averageTime := averageTimeSpent(answers)
	recentAverageTime := averageTimeSpent(recentWindow)

	hintUsageRate := averageHints(answers)

	consistency := consistencyOverWindows(answers)
	trend := accuracyTrend(answers)

	score := 0.0

	switch {
	case recentAccuracy >= 0.8:
		score += 0.4
	case recentAccuracy <= 0.4:
		score -= 0.4
	}

	switch {
	case overallAccuracy >= 0.75:
		score += 0.2
	case overallAccuracy <= 0.5:
		score -= 0.2
	}

	speedFactor := 0.0
	switch {
	case recentAverageTime < averageTime && recentAverageTime < 90:
		speedFactor = 0.5
	case recentAverageTime > 135:
		speedFactor = -0.5
	}
	score += 0.15 * speedFactor

	switch {
	case hintUsageRate >= 0.5:
		score -= 0.15
	case hintUsageRate <= 0.2:
		score += 0.1
	}

	score += 0.1 * consistency
	score += 0.1 * trend

	if remainingQuestions <= 3 {
		score *= 0.7
	}

	score = clampFloat(score, -1, 1)

	adjustment := models.AdjustMaintain
	if score >= 0.7 && remainingQuestions >= 3 {
		adjustment = models.AdjustHarder
	} else if score <= -0.7 && remainingQuestions >= 3 {
		adjustment = models.AdjustEasier
	}

	return models.OnlineAdjustmentResult{Adjustment: adjustment, AdjustmentScore: score}
}

func accuracy(answers []models.GradedAnswer) float64 {
	if len(answers) == 0 {
		return 0
	}
	correct := 0
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
	}
	return float64(correct) / float64(len(answers))
}

func averageTimeSpent(answers []models.GradedAnswer) float64 {
	if len(answers) == 0 {
		return 0
	}
	total := 0
	for _, a := range answers {
		total += a.TimeSpent
	}
	return float64(total) / float64(len(answers))
}

func averageHints(answers []models.GradedAnswer) float64 {
	if len(answers) == 0 {
		return 0
	}
	total := 0
	for _, a := range answers {
		total += a.HintsUsed
	}
	return float64(total) / float64(len(answers))
}

func lastN(answers []models.GradedAnswer, n int) []models.GradedAnswer {
	if len(answers) <= n {
		return answers
	}
	return answers[len(answers)-n:]
}

// consistencyOverWindows computes the variance of per-window accuracy over
// sliding windows of size 5, mapped to [0,1] via clamp(1 - 2*variance, 0, 1).
func consistencyOverWindows(answers []models.GradedAnswer) float64 {
	const windowSize = 5
	if len(answers) < windowSize {
		return 1
	}

	var windowAccuracies []float64
	for i := 0; i+windowSize <= len(answers); i++ {
		windowAccuracies = append(windowAccuracies, accuracy(answers[i:i+windowSize]))
	}
	if len(windowAccuracies) < 2 {
		return 1
	}

	variance, err := stats.PopulationVariance(windowAccuracies)
	if err != nil {
		return 1
	}
	return clampFloat(1-2*variance, 0, 1)
}

// accuracyTrend is accuracy(second half) - accuracy(first half), each half
// at least 2 answers; 0 if the sequence can't be split that way.
func accuracyTrend(answers []models.GradedAnswer) float64 {
	n := len(answers)
	if n < 4 {
		return 0
	}
	mid := n / 2
	firstHalf := answers[:mid]
	secondHalf := answers[mid:]
	if len(firstHalf) < 2 || len(secondHalf) < 2 {
		return 0
	}
	return accuracy(secondHalf) - accuracy(firstHalf)
}

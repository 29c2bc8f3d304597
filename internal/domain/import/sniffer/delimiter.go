package sniffer

import (
	"errors"
	"strings"
)

var ErrInvalidDelimiter = errors.New("could not detect valid delimiter")

// delimiterCandidates in preference order for ties.
var delimiterCandidates = []rune{';', '\t', ',', '|'}

const maxDelimiterLines = 20

// DetectDelimiter picks the field delimiter of a delimited text export. Each
// candidate is scored by how many of the first non-empty lines share its most
// common per-line count; ties go to the higher count, then to the candidate
// order. Title lines without any delimiter do not vote.
func DetectDelimiter(text string) (rune, error) {
	var lines []string
	for i, line := range strings.Split(text, "\n") {
		line = cleanLine(line, i == 0)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == maxDelimiterLines {
			break
		}
	}
	if len(lines) == 0 {
		return 0, ErrInvalidDelimiter
	}

	best := rune(0)
	bestVotes, bestCount := 0, 0
	for _, d := range delimiterCandidates {
		votes, count := modalCount(lines, d)
		if count == 0 {
			continue
		}
		if votes > bestVotes || (votes == bestVotes && count > bestCount) {
			best, bestVotes, bestCount = d, votes, count
		}
	}
	if best == 0 {
		return 0, ErrInvalidDelimiter
	}
	return best, nil
}

// modalCount returns the most frequent non-zero occurrence count of d per
// line and how many lines have it.
func modalCount(lines []string, d rune) (votes, count int) {
	freq := make(map[int]int)
	for _, line := range lines {
		if c := strings.Count(line, string(d)); c > 0 {
			freq[c]++
		}
	}
	for c, n := range freq {
		if n > votes || (n == votes && c > count) {
			votes, count = n, c
		}
	}
	return votes, count
}

func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}

package shamir

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/heirloom-app/heirloom/internal/util"
)

const shareFormatVersion = 1

var shareRE = regexp.MustCompile(`^S(\d)-([2-9A-HJ-NP-TV-Z]{6})-(\d{1,3})-(\d{1,3})-(\d{1,3})-([0-9a-f]+)$`)

// FormatShare renders a share as a single line suitable for the display-once
// handoff to an heir:
//
//	S1-<group>-<index>-<threshold>-<total>-<hex value>
func FormatShare(s Share) string {
	return fmt.Sprintf("S%d-%s-%d-%d-%d-%s",
		shareFormatVersion, s.GroupID, s.Index, s.Threshold, s.Total,
		util.HexEncode(s.Value))
}

// ParseShare parses a share from its formatted string representation.
func ParseShare(str string) (Share, error) {
	matches := shareRE.FindStringSubmatch(str)
	if matches == nil {
		return Share{}, fmt.Errorf("invalid share format")
	}

	version, err := strconv.Atoi(matches[1])
	if err != nil || version != shareFormatVersion {
		return Share{}, fmt.Errorf("unsupported share format version %q", matches[1])
	}

	index, err := parseShareField(matches[3], "index")
	if err != nil {
		return Share{}, err
	}
	threshold, err := parseShareField(matches[4], "threshold")
	if err != nil {
		return Share{}, err
	}
	total, err := parseShareField(matches[5], "total")
	if err != nil {
		return Share{}, err
	}
	value, err := util.HexDecode(matches[6])
	if err != nil {
		return Share{}, fmt.Errorf("decoding share value: %w", err)
	}

	return Share{
		GroupID:   matches[2],
		Index:     index,
		Threshold: threshold,
		Total:     total,
		Value:     value,
	}, nil
}

func parseShareField(s, name string) (uint8, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > MaxShares {
		return 0, fmt.Errorf("share %s %q out of range", name, s)
	}
	return uint8(n), nil
}

package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errUsage = errors.New("usage")

// parseFloatArg parses the single numeric argument of /weight, accepting a decimal comma.
func parseFloatArg(args string) (float64, error) {
	fields := strings.Fields(args)
	if len(fields) != 1 {
		return 0, errUsage
	}
	v, err := strconv.ParseFloat(strings.Replace(fields[0], ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errUsage, fields[0])
	}
	return v, nil
}

// parseIntArg parses the single integer argument of /water and /check.
func parseIntArg(args string) (int, error) {
	fields := strings.Fields(args)
	if len(fields) != 1 {
		return 0, errUsage
	}
	v, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", errUsage, fields[0])
	}
	return v, nil
}

// workoutArgs is "/workout <kind...> <minutes> [calories]".
type workoutArgs struct {
	Kind     string
	Minutes  int
	Calories int
}

// parseWorkoutArgs reads the trailing numbers; everything before them is the kind.
func parseWorkoutArgs(args string) (workoutArgs, error) {
	fields := strings.Fields(args)
	var nums []int
	for len(fields) > 0 && len(nums) < 2 {
		n, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil {
			break
		}
		nums = append([]int{n}, nums...)
		fields = fields[:len(fields)-1]
	}
	if len(fields) == 0 || len(nums) == 0 {
		return workoutArgs{}, errUsage
	}

	w := workoutArgs{Kind: strings.Join(fields, " "), Minutes: nums[0]}
	if len(nums) == 2 {
		w.Calories = nums[1]
	}
	return w, nil
}

func isURL(text string) bool {
	return strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://")
}

package assert

import "fmt"

func NotNil(value any) {
	if value == nil {
		panic("expected value to be not nil")
	}
}

func NotEmptyStr(str string) {
	if str == "" {
		panic("expected string to be non-empty")
	}
}

func NonNegative(n int64) {
	if n < 0 {
		panic(fmt.Sprintf("expected non-negative value, got %d", n))
	}
}

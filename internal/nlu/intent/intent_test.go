package intent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	c := NewRuleClassifier()

	tests := []struct {
		phrase string
		want   Key
	}{
		{"когда следующая пара", NextClass},
		{"во сколько class", NextClass},
		{"какие пары day", ClassList},
		{"расписание group на day", ClassList},
		{"кто учится в group", ClassPeer},
		{"с кем я на class", ClassPeer},
		{"я учусь в organization в group", UserClar},
		{"меня зовут employee", UserClar},
		{"кто такой employee", EmployeeInfo},
		{"расскажи о employee", EmployeeInfo},
		{"где сейчас employee", EducatorPlace},
		{"где сидит employee", EducatorPlace},
		{"что ты умеешь", BotInfo},
		{"привет", BotInfo},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			t.Parallel()
			got, err := c.Classify(context.Background(), tt.phrase)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyValid(t *testing.T) {
	t.Parallel()

	for _, k := range All() {
		assert.True(t, k.Valid(), "key %s", k)
	}
	assert.False(t, Key("weatherReport").Valid())
}

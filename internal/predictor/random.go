package predictor

import (
	"math/rand"
	"time"
)

// Source 随机数来源，Next 返回 [0,1) 的值
type Source interface {
	Next() float64
}

type randSource struct {
	rng *rand.Rand
}

// NewSource 以固定种子创建随机源，相同种子产生相同的预测
func NewSource(seed int64) Source {
	return &randSource{rng: rand.New(rand.NewSource(seed))}
}

// NewTimeSource 以当前时间为种子
func NewTimeSource() Source {
	return NewSource(time.Now().UnixNano())
}

func (s *randSource) Next() float64 {
	return s.rng.Float64()
}

// intn 返回 [0,n) 的随机下标
func intn(src Source, n int) int {
	if n <= 1 {
		return 0
	}
	i := int(src.Next() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// noise 以 0 为中心、总宽度为 width 的扰动
func noise(src Source, width float64) float64 {
	return (src.Next() - 0.5) * width
}

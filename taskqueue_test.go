package framecadence

import (
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskQueueRunsTasksInOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		queue := NewTaskQueue()
		defer queue.Close()

		var order []int
		for i := 0; i != 5; i++ {
			queue.Post(func() {
				order = append(order, i)
			})
		}
		synctest.Wait()
		assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	})
}

func TestTaskQueueRunsNestedPostsAfterCurrentTask(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		queue := NewTaskQueue()
		defer queue.Close()

		var order []string
		queue.Post(func() {
			queue.Post(func() {
				order = append(order, "nested")
			})
			order = append(order, "outer")
		})
		synctest.Wait()
		assert.Equal(t, []string{"outer", "nested"}, order)
	})
}

func TestTaskQueueRunsDelayedTasksByDeadline(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		queue := NewTaskQueue()
		defer queue.Close()

		var order []string
		queue.PostDelayed(20*time.Millisecond, func() {
			order = append(order, "late")
		})
		queue.PostDelayed(10*time.Millisecond, func() {
			order = append(order, "early")
		})
		queue.Post(func() {
			order = append(order, "now")
		})

		synctest.Wait()
		assert.Equal(t, []string{"now"}, order)

		time.Sleep(10 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, []string{"now", "early"}, order)

		time.Sleep(10 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, []string{"now", "early", "late"}, order)
	})
}

func TestTaskQueueRunsNonPositiveDelayImmediately(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		queue := NewTaskQueue()
		defer queue.Close()

		ran := false
		queue.PostDelayed(0, func() {
			ran = true
		})
		synctest.Wait()
		assert.True(t, ran)
	})
}

func TestTaskQueueCloseDrainsPostedTasks(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		queue := NewTaskQueue()

		ran := 0
		for i := 0; i != 3; i++ {
			queue.Post(func() {
				ran++
			})
		}
		queue.Close()
		assert.Equal(t, 3, ran)

		// Posts after Close are dropped.
		queue.Post(func() {
			ran++
		})
		synctest.Wait()
		assert.Equal(t, 3, ran)
	})
}

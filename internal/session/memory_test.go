package session_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/aabdoo23/Protomatic/internal/session"
)

var _ = Describe("Memory", func() {
	var memory *session.Memory

	BeforeEach(func() {
		memory = session.NewMemory()
	})

	It("records messages in order", func() {
		memory.AddMessage("s1", "user", "hello")
		memory.AddMessage("s1", "bot", "hi there")

		history := memory.History("s1")
		Expect(history).To(HaveLen(2))
		Expect(history[0].Role).To(Equal("user"))
		Expect(history[1].Message).To(Equal("hi there"))
	})

	It("keeps sessions separate", func() {
		memory.AddMessage("s1", "user", "hello")

		Expect(memory.History("s2")).To(BeEmpty())
		memory.AddMessage("s2", "user", "other")
		Expect(memory.History("s1")).To(HaveLen(1))
	})

	It("returns a copy of the history", func() {
		memory.AddMessage("s1", "user", "hello")

		history := memory.History("s1")
		history[0].Message = "mutated"

		Expect(memory.History("s1")[0].Message).To(Equal("hello"))
	})

	It("stores and copies per-session state", func() {
		memory.UpdateState("s1", "last_sequence", "MKVL")

		state := memory.State("s1")
		Expect(state).To(HaveKeyWithValue("last_sequence", "MKVL"))

		state["last_sequence"] = "mutated"
		Expect(memory.State("s1")).To(HaveKeyWithValue("last_sequence", "MKVL"))
	})
})

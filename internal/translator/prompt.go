package translator

import (
	"fmt"
	"strings"

	"github.com/MimeLyc/sakura-subtrans/internal/sanitize"
	"github.com/MimeLyc/sakura-subtrans/internal/termmap"
)

const (
	imStart = "<|im_start|>"
	imEnd   = "<|im_end|>"

	// BatchPrimer opens the assistant turn of a batch prompt. The model
	// continues after it, so it is put back in front of the reply.
	BatchPrimer = "1: "
)

const batchSystemPrompt = "你是一个日本动画字幕翻译专家。请把每一行编号的日文台词翻译成中文，" +
	"译文以相同的编号开头，一行对应一行。" +
	"[T0]、[T1] 这类标记必须原样保留在对应位置。" +
	"台词中的 \\N 换行请在译文中一一对应保留。" +
	"内容为 " + sanitize.Sentinel + " 的编号直接输出 " + sanitize.Sentinel + "。"

const lineSystemPrompt = "你是一个日本动画字幕翻译，请把日文台词翻译成流畅自然的中文。" +
	"[T0] 这类标记原样保留。只输出译文。"

func chatML(system, user string) string {
	var sb strings.Builder
	sb.WriteString(imStart + "system\n" + system + imEnd + "\n")
	sb.WriteString(imStart + "user\n" + user + imEnd + "\n")
	sb.WriteString(imStart + "assistant\n")
	return sb.String()
}

// glossaryBlock lists the terms a prompt must translate consistently
func glossaryBlock(terms termmap.TermMap) string {
	if len(terms) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("根据以下术语表翻译：\n")
	for _, e := range terms.Entries() {
		sb.WriteString(e.Source + "->" + e.Target + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

// BuildBatchPrompt numbers the bodies of batch from 1. Entries without an
// ideograph or kana are sent as the sentinel so the model has nothing to
// invent on. terms, when not empty, are listed ahead of the lines.
func BuildBatchPrompt(batch []*Task, terms termmap.TermMap) string {
	lines := make([]string, len(batch))
	for i, task := range batch {
		content := task.Body
		if task.PassThrough {
			content = sanitize.Sentinel
		}
		lines[i] = fmt.Sprintf("%d: %s", i+1, content)
	}
	return chatML(batchSystemPrompt, glossaryBlock(terms)+strings.Join(lines, "\n")) + BatchPrimer
}

// BuildLinePrompt asks for the translation of one body
func BuildLinePrompt(task *Task, terms termmap.TermMap) string {
	return chatML(lineSystemPrompt, glossaryBlock(terms)+task.Body)
}

// Bodies returns the texts sent for batch
func Bodies(batch []*Task) []string {
	bodies := make([]string, len(batch))
	for i, task := range batch {
		bodies[i] = task.Body
	}
	return bodies
}

// Entries describes batch to the sanitizer
func Entries(batch []*Task) []sanitize.Entry {
	entries := make([]sanitize.Entry, len(batch))
	for i, task := range batch {
		entries[i] = sanitize.Entry{Body: task.Body, TagCount: len(task.Tags), Index: i + 1}
	}
	return entries
}

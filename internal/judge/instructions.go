// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package judge

import (
	"fmt"
	"os"
	"strings"
)

// skillSearchPaths are checked in order for the relevance-judge skill.
var skillSearchPaths = []string{
	"skills/paper-relevance-judge/SKILL.md",
	"~/.claude/skills/paper-relevance-judge/SKILL.md",
}

// fallbackPromptTemplate is used when no skill file is installed. It asks
// for a bare verdict, which the response parser's first-word and
// localized-token rules handle.
const fallbackPromptTemplate = `请判断以下论文是否与"科研相关的 AI Agent"相关。

判断标准：
1. 是否涉及多智能体系统 (multi-agent systems)
2. 是否涉及 AI/LLM Agent 的研究
3. 是否涉及自动化科研工具或方法论
4. 是否涉及强化学习在智能体中的应用

论文标题：%s
论文摘要：%s

请只回答 '相关' 或 '不相关'，不要解释。`

// LoadInstructions reads the relevance-judge skill body from the first
// search path that exists, stripping the YAML frontmatter. Returns ""
// when no skill file is installed; BuildPrompt then falls back to the
// built-in template.
func LoadInstructions() string {
	home, _ := os.UserHomeDir()
	for _, p := range skillSearchPaths {
		path := p
		if strings.HasPrefix(path, "~/") && home != "" {
			path = home + path[1:]
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return stripFrontmatter(string(data))
	}
	return ""
}

// stripFrontmatter removes a leading YAML frontmatter block delimited by
// "---" lines. Content without frontmatter is returned unchanged.
func stripFrontmatter(content string) string {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return content
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[i+1:], "\n")
		}
	}
	return content
}

// BuildPrompt composes the judgment prompt for one paper. With skill
// instructions present it requests the structured Decision/Reasoning/
// Confidence format; otherwise it uses the bare-verdict fallback.
func BuildPrompt(instructions, title, abstract string) string {
	if instructions == "" {
		return fmt.Sprintf(fallbackPromptTemplate, title, abstract)
	}
	return fmt.Sprintf(`%s

---

请判断以下论文是否与 AI Agents for Scientific Research 相关：

**论文标题**: %s

**论文摘要**: %s

请严格按照上述格式要求输出判断结果（Decision、Reasoning、Confidence）。`,
		instructions, title, abstract)
}

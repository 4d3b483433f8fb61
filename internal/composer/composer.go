// Package composer builds generation prompts from retrieved documents and
// post-processes the raw completion into a presentable answer.
package composer

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"reog-rag/internal/models"
)

// answerMaxTokens caps answer length; shorter than the general completion
// budget to keep answers concise.
const answerMaxTokens = 256

// TextGenerator is the completion collaborator contract.
type TextGenerator interface {
	Generate(ctx context.Context, prompt, systemPrompt string, temperature float64, maxTokens int) (string, error)
}

type Composer struct {
	gen         TextGenerator
	temperature float64
}

func New(gen TextGenerator, temperature float64) *Composer {
	return &Composer{gen: gen, temperature: temperature}
}

// Compose generates an answer grounded in the retrieved documents. An empty
// result (with or without error) must be treated as a hard failure by the
// caller, never as a valid empty answer.
func (c *Composer) Compose(ctx context.Context, question string, documents []models.RetrievedResult, language string) (string, error) {
	contextBlock := BuildContext(documents)
	systemPrompt := systemPrompt(language)
	userPrompt := userPrompt(question, contextBlock, language)

	answer, err := c.gen.Generate(ctx, userPrompt, systemPrompt, c.temperature, answerMaxTokens)
	if err != nil {
		return "", err
	}
	return Postprocess(answer, language), nil
}

// BuildContext concatenates document contents, each prefixed with a numbered
// reference to its title and category.
func BuildContext(documents []models.RetrievedResult) string {
	parts := make([]string, 0, len(documents))
	for i, doc := range documents {
		title := doc.Metadata[models.MetaTitle]
		if title == "" {
			title = "Unknown"
		}
		category := doc.Metadata[models.MetaCategory]
		parts = append(parts, fmt.Sprintf("[Dokumen %d: %s (%s)]\n%s", i+1, title, category, doc.Content))
	}
	return strings.Join(parts, "\n\n")
}

func systemPrompt(language string) string {
	if language == models.LanguageIndonesian {
		return `Anda adalah pemandu virtual museum Reog Ponorogo yang ramah dan berpengetahuan luas.

TUGAS ANDA:
- Menjawab pertanyaan pengunjung tentang Reog Ponorogo
- Gunakan HANYA informasi dari konteks yang diberikan
- Berikan jawaban yang informatif namun ringkas (2-4 kalimat)
- Bersikap ramah dan antusias tentang budaya Reog

ATURAN PENTING:
1. Jika informasi tidak ada dalam konteks, katakan "Maaf, saya tidak memiliki informasi tentang hal tersebut dalam basis pengetahuan saya."
2. Jangan mengarang atau menambahkan informasi yang tidak ada di konteks
3. Gunakan Bahasa Indonesia yang jelas dan mudah dipahami
4. Fokus pada informasi yang paling relevan dengan pertanyaan
5. Jangan memulai jawaban dengan sapaan pembuka`
	}

	return `You are a friendly and knowledgeable Reog Ponorogo virtual museum guide.

YOUR TASK:
- Answer visitors' questions about Reog Ponorogo
- Use ONLY information from the provided context
- Provide informative yet concise answers (2-4 sentences)
- Be friendly and enthusiastic about Reog culture

IMPORTANT RULES:
1. If information is not in the context, say "I'm sorry, I don't have information about that in my knowledge base."
2. Do not make up or add information not present in the context
3. Use clear and easy-to-understand English
4. Focus on information most relevant to the question
5. Don't start your answer with an opening greeting`
}

func userPrompt(question, contextBlock, language string) string {
	if language == models.LanguageIndonesian {
		return fmt.Sprintf("Konteks informasi:\n%s\n\nPertanyaan pengunjung: %s\n\nJawaban (dalam 2-4 kalimat):", contextBlock, question)
	}
	return fmt.Sprintf("Context information:\n%s\n\nVisitor question: %s\n\nAnswer (in 2-4 sentences):", contextBlock, question)
}

var boilerplatePrefixes = map[string][]string{
	models.LanguageIndonesian: {"Jawaban:", "Jawab:", "Berdasarkan konteks,"},
	models.LanguageEnglish:    {"Answer:", "Based on the context,"},
}

// Postprocess strips leading boilerplate, forces leading capitalization and
// ensures terminal punctuation.
func Postprocess(answer, language string) string {
	answer = strings.TrimSpace(answer)

	for _, prefix := range boilerplatePrefixes[language] {
		if strings.HasPrefix(answer, prefix) {
			answer = strings.TrimSpace(strings.TrimPrefix(answer, prefix))
		}
	}

	if answer == "" {
		return ""
	}

	runes := []rune(answer)
	runes[0] = unicode.ToUpper(runes[0])
	answer = string(runes)

	last := runes[len(runes)-1]
	if last != '.' && last != '!' && last != '?' {
		answer += "."
	}
	return answer
}

package chapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentTwoChapters(t *testing.T) {
	got := Segment("一、引言\n内容A\n二、结论\n内容B")
	assert.Equal(t, []Chapter{
		{Title: "一、引言", Content: "内容A"},
		{Title: "二、结论", Content: "内容B"},
	}, got)
}

func TestSegmentWithoutHeadings(t *testing.T) {
	got := Segment("  这是一段没有标题的文本\n")
	assert.Equal(t, []Chapter{{Title: FullTextTitle, Content: "这是一段没有标题的文本"}}, got)
}

func TestSegmentEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\t\n"} {
		got := Segment(in)
		assert.NotNil(t, got)
		assert.Empty(t, got, "input %q", in)
	}
}

func TestSegmentDropsEmptyChapters(t *testing.T) {
	got := Segment("一、背景与问题\n背景内容\n二、主要研究路径\n\n三、热点与趋势\n趋势内容\n四、不足与展望")
	require.Len(t, got, 2)
	assert.Equal(t, "一、背景与问题", got[0].Title)
	assert.Equal(t, "三、热点与趋势", got[1].Title)
	assert.Equal(t, "趋势内容", got[1].Content)
}

func TestSegmentKeepsSourceOrder(t *testing.T) {
	got := Segment("三、后\nc\n一、前\na")
	require.Len(t, got, 2)
	assert.Equal(t, "三、后", got[0].Title)
	assert.Equal(t, "一、前", got[1].Title)
}

func TestSegmentSeparatorsAndMultiline(t *testing.T) {
	text := "一．绪论\n第一段\n\n第二段 [1][2]\n十一.附录\n附录内容"
	got := Segment(text)
	require.Len(t, got, 2)
	assert.Equal(t, "一．绪论", got[0].Title)
	assert.Equal(t, "第一段\n\n第二段 [1][2]", got[0].Content)
	assert.Equal(t, "十一.附录", got[1].Title)
}

func TestSegmentIgnoresOrdinalsInsideSentences(t *testing.T) {
	got := Segment("一些研究表明：\n一是样本偏小，二是方法单一。")
	assert.Equal(t, []Chapter{{Title: FullTextTitle, Content: "一些研究表明：\n一是样本偏小，二是方法单一。"}}, got)
}

func TestSegmentPreamble(t *testing.T) {
	got := Segment("综述说明\n一、引言\n内容")
	require.Len(t, got, 2)
	assert.Equal(t, Chapter{Title: PreambleTitle, Content: "综述说明"}, got[0])
	assert.Equal(t, Chapter{Title: "一、引言", Content: "内容"}, got[1])
}

func TestSegmentPreambleOnlyIsFullText(t *testing.T) {
	for _, in := range []string{"前言\n一、引言", "前言\n一、引言\n二、结论"} {
		assert.Equal(t, []Chapter{{Title: FullTextTitle, Content: "前言"}}, Segment(in), "input %q", in)
	}
}

func TestSegmentIsIdempotent(t *testing.T) {
	inputs := []string{
		"一、引言\n内容A\n二、结论\n内容B",
		"这是一段没有标题的文本",
		"前言\n\n一、背景\n\n  缩进内容  \n二、空\n三、结论\n结尾 **重点**",
		"前言\n一、引言",
		"前言\n一、引言\n二、结论",
		"",
	}
	for _, in := range inputs {
		first := Segment(in)
		second := Segment(Join(first))
		assert.Equal(t, first, second, "input %q", in)
		assert.Equal(t, first, Segment(in), "segmentation must be deterministic")
	}
}

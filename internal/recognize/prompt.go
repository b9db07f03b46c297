package recognize

import (
	"fmt"
	"sort"
	"strings"

	"daicho/internal/port"
)

// photoCategories is the vocabulary offered for the 写真区分 guess.
var photoCategories = []string{
	// 品質管理 - 温度測定
	"到着温度", "敷均し温度", "初期締固め前温度", "開放温度",
	"アスファルト混合物温度測定",
	// 品質管理 - 密度測定
	"現場密度測定",
	// 施工状況
	"転圧状況", "敷均し状況", "舗設状況", "初期転圧状況", "2次転圧状況",
	"乳剤散布状況", "端部乳剤塗布状況", "養生砂散布状況", "清掃状況",
	"掘削状況", "積込状況", "取壊し状況", "据付状況", "設置状況",
	// 着手前・完成
	"着手前", "完了", "竣工", "施工完了", "既済部分",
	// 出来形管理
	"不陸整正出来形", "路盤厚出来形", "表層厚出来形", "幅員出来形",
	// 安全管理
	"朝礼実施状況", "朝礼・KYミーティング実施状況", "朝礼状況",
	"KY活動状況", "危険予知活動状況", "KYミーティング実施状況",
	"新規入場者教育状況", "新規入場者教育実施状況",
	"保安施設設置状況", "点灯確認状況", "安全巡視状況",
	"安全訓練実施状況", "避難訓練実施状況",
	// その他
	"その他",
}

const visionPromptFormat = `あなたは工事写真帳を作成する現場監督です。複数の写真を同時に解析し、一貫性のある分類を行ってください。

## 写真区分（フォトカテゴリ）
以下から最も適切なものを選択：
%s%s

## 出力形式
次のJSON配列のみを出力すること。コードフェンスや説明文は不要。
[
  {
    "fileName": "ファイル名",
    "hasBoard": true/false,
    "detectedText": "黒板・看板から読み取った全テキスト",
    "measurements": "数値データ（温度、寸法、密度等）単位付き",
    "sceneDescription": "写真に写っているものの客観的な説明",
    "photoCategory": "写真区分から選択"
  }
]

## 注意
- 黒板のテキストは正確にOCR
- 数値は単位も含めて正確に（例: "160.4℃", "厚さ50mm"）
- 同じ場所・同じ作業の写真は一貫した分類を
- 推測せず、見えるものだけを記載

対象写真:
%s`

// BuildVisionPrompt returns the batch recognition prompt for the given
// photos. Photos are attached to the request in the same order they
// are listed here. When the hints carry a work-type tree it is folded
// into the prompt so the model guesses work types and varieties from
// the master's own vocabulary.
func BuildVisionPrompt(photos []port.VisionPhoto, hints port.VisionHints) string {
	lines := make([]string, 0, len(photos))
	for _, p := range photos {
		date := p.Date
		if date == "" {
			date = "unknown"
		}
		lines = append(lines, fmt.Sprintf("- %s (撮影: %s)", p.FileName, date))
	}
	return fmt.Sprintf(visionPromptFormat,
		strings.Join(photoCategories, ", "),
		workTypeSection(hints.WorkTypeTree),
		strings.Join(lines, "\n"))
}

// workTypeSection renders the master's work type tree as a prompt
// section, or an empty string when no master is available. Map order
// is sorted so the same master always yields the same prompt.
func workTypeSection(tree map[string]map[string][]string) string {
	if len(tree) == 0 {
		return ""
	}
	workTypes := make([]string, 0, len(tree))
	for wt := range tree {
		workTypes = append(workTypes, wt)
	}
	sort.Strings(workTypes)

	var b strings.Builder
	b.WriteString("\n\n## 工種体系（参考）\n工種・種別・細別は以下の体系に沿って推定すること：\n")
	for _, wt := range workTypes {
		b.WriteString("- " + wt + "\n")
		varieties := make([]string, 0, len(tree[wt]))
		for v := range tree[wt] {
			varieties = append(varieties, v)
		}
		sort.Strings(varieties)
		for _, v := range varieties {
			if v == "" {
				continue
			}
			b.WriteString("  - " + v)
			if subs := tree[wt][v]; len(subs) > 0 {
				b.WriteString("（" + strings.Join(subs, "、") + "）")
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

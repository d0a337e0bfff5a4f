// Package i18n holds the English and Chinese user-facing strings.
package i18n

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/language"
)

// Key names a translatable string.
type Key string

const (
	AppName              Key = "app.name"
	NoticeViewRegistered Key = "notice.viewRegistered"
	NoticeNoActiveCell   Key = "notice.noActiveCell"
	NoticeSaved          Key = "notice.saved"
	NoticeGridCreated    Key = "notice.gridCreated"
	NoticeExternalEdit   Key = "notice.externalEdit"
	ErrorViewConflict    Key = "error.viewConflict"
	ErrorNoTerminal      Key = "error.noTerminal"
	ErrorNoGrid          Key = "error.noGrid"
	ErrorGridInUse       Key = "error.gridInUse"

	CommandCreateNewGrid  Key = "command.createNewGrid"
	CommandAddRowAbove    Key = "command.addRowAbove"
	CommandAddRowBelow    Key = "command.addRowBelow"
	CommandAddColumnLeft  Key = "command.addColumnLeft"
	CommandAddColumnRight Key = "command.addColumnRight"
	CommandRemoveRow      Key = "command.removeRow"
	CommandRemoveColumn   Key = "command.removeColumn"
	CommandSelectNote     Key = "command.selectNote"
	CommandClearGrid      Key = "command.clearGrid"
	CommandUndo           Key = "command.undo"
	CommandQuit           Key = "command.quit"
	CommandPaletteHint    Key = "command.paletteHint"
	GridBaseName          Key = "grid.baseName"
	ButtonDeleteRow       Key = "button.deleteRow"
	ButtonDeleteColumn    Key = "button.deleteColumn"
	CellEditing           Key = "cell.editing"
	CellFileNotFound      Key = "cell.fileNotFound"
	CellEmptyPlaceholder  Key = "cell.emptyPlaceholder"
	CellReadFailed        Key = "cell.readFailed"
	CellRenderFailed      Key = "cell.renderFailed"
	CellLoading           Key = "cell.loading"
	MenuReplaceNote       Key = "menu.replaceNote"
	MenuClear             Key = "menu.clear"
	MenuOpenExternal      Key = "menu.openExternal"
	MenuSelectNote        Key = "menu.selectNote"
	PickerPlaceholder     Key = "picker.placeholder"
	PickerEmpty           Key = "picker.empty"
	ToastRowDeleted       Key = "toast.rowDeleted"
	ToastColumnDeleted    Key = "toast.columnDeleted"
	ToastUndo             Key = "toast.undo"
	HelpGrid              Key = "help.grid"
	HelpEditor            Key = "help.editor"
	HelpPicker            Key = "help.picker"
)

var tables = map[string]map[Key]string{
	"en": {
		AppName:               "Grid Panes",
		NoticeViewRegistered:  "Grid Panes view was left registered by an earlier run; it has been reclaimed.",
		NoticeNoActiveCell:    "No active cell",
		NoticeSaved:           "Saved {path}",
		NoticeGridCreated:     `Created grid "{name}"; open it with teagrid --grid {name}`,
		NoticeExternalEdit:    "Editor exited: {err}",
		ErrorViewConflict:     `View type "{type}" is already registered by {owner} (pid {pid}). Close the other instance and try again.`,
		ErrorNoTerminal:       "The grid view needs an interactive terminal",
		ErrorNoGrid:           `Grid "{name}" does not exist; create it with "teagrid new"`,
		ErrorGridInUse:        `Grid "{name}" is open in another teagrid view (pid {pid})`,
		CommandCreateNewGrid:  "Create new grid",
		CommandAddRowAbove:    "Add row at top",
		CommandAddRowBelow:    "Add row at bottom",
		CommandAddColumnLeft:  "Add column at left",
		CommandAddColumnRight: "Add column at right",
		CommandRemoveRow:      "Remove last row",
		CommandRemoveColumn:   "Remove last column",
		CommandSelectNote:     "Select note for active cell",
		CommandClearGrid:      "Clear grid",
		CommandUndo:           "Undo",
		CommandQuit:           "Quit",
		CommandPaletteHint:    "Type a command...",
		GridBaseName:          "grid-layout",
		ButtonDeleteRow:       "Delete row",
		ButtonDeleteColumn:    "Delete column",
		CellEditing:           "Editing",
		CellFileNotFound:      "File not found",
		CellEmptyPlaceholder:  "Click to choose note",
		CellReadFailed:        "Failed to read",
		CellRenderFailed:      "Render failed",
		CellLoading:           "Loading...",
		MenuReplaceNote:       "Change note",
		MenuClear:             "Clear",
		MenuOpenExternal:      "Open in $EDITOR",
		MenuSelectNote:        "Select note",
		PickerPlaceholder:     "Select a note...",
		PickerEmpty:           "No matching notes",
		ToastRowDeleted:       "Row deleted",
		ToastColumnDeleted:    "Column deleted",
		ToastUndo:             "Undo",
		HelpGrid:              "arrows move • enter open • s select • x clear • o $EDITOR • m menu • u undo • r/c add • R/C remove • : commands • q quit",
		HelpEditor:            "esc done • ctrl+s save",
		HelpPicker:            "enter choose • esc cancel",
	},
	"zh": {
		AppName:               "网格面板",
		NoticeViewRegistered:  "网格面板视图此前未正常注销，已重新接管。",
		NoticeNoActiveCell:    "没有活动的单元格",
		NoticeSaved:           "已保存 {path}",
		NoticeGridCreated:     `已创建网格 "{name}"，使用 teagrid --grid {name} 打开`,
		NoticeExternalEdit:    "编辑器退出：{err}",
		ErrorViewConflict:     `视图类型 "{type}" 已被 {owner} 注册（进程 {pid}）。请关闭其他实例后重试。`,
		ErrorNoTerminal:       "网格视图需要交互式终端",
		ErrorNoGrid:           `网格 "{name}" 不存在，请先运行 "teagrid new" 创建`,
		ErrorGridInUse:        `网格 "{name}" 正在另一个 teagrid 视图中打开（进程 {pid}）`,
		CommandCreateNewGrid:  "创建新网格",
		CommandAddRowAbove:    "在顶部添加一行",
		CommandAddRowBelow:    "在底部添加一行",
		CommandAddColumnLeft:  "在左侧添加一列",
		CommandAddColumnRight: "在右侧添加一列",
		CommandRemoveRow:      "删除最后一行",
		CommandRemoveColumn:   "删除最后一列",
		CommandSelectNote:     "为活动单元格选择笔记",
		CommandClearGrid:      "清空网格",
		CommandUndo:           "撤销",
		CommandQuit:           "退出",
		CommandPaletteHint:    "输入命令...",
		GridBaseName:          "grid-layout",
		ButtonDeleteRow:       "删除行",
		ButtonDeleteColumn:    "删除列",
		CellEditing:           "编辑中",
		CellFileNotFound:      "文件未找到",
		CellEmptyPlaceholder:  "点击选择笔记",
		CellReadFailed:        "读取失败",
		CellRenderFailed:      "渲染失败",
		CellLoading:           "加载中...",
		MenuReplaceNote:       "更换笔记",
		MenuClear:             "清空",
		MenuOpenExternal:      "在 $EDITOR 中打开",
		MenuSelectNote:        "选择笔记",
		PickerPlaceholder:     "选择一个笔记...",
		PickerEmpty:           "没有匹配的笔记",
		ToastRowDeleted:       "已删除行",
		ToastColumnDeleted:    "已删除列",
		ToastUndo:             "撤销",
		HelpGrid:              "方向键 移动 • enter 打开 • s 选择 • x 清空 • o $EDITOR • m 菜单 • u 撤销 • r/c 添加 • R/C 删除 • : 命令 • q 退出",
		HelpEditor:            "esc 完成 • ctrl+s 保存",
		HelpPicker:            "enter 选择 • esc 取消",
	},
}

var (
	supported = []language.Tag{language.English, language.Chinese}
	matcher   = language.NewMatcher(supported)
	template  = regexp.MustCompile(`\{(\w+)\}`)
)

// Translator resolves keys for one locale.
type Translator struct {
	locale string
}

// New returns a translator for the given locale. An empty locale falls back
// to LC_ALL, LC_MESSAGES and LANG, then English.
func New(locale string) *Translator {
	if locale == "" {
		locale = envLocale()
	}
	return &Translator{locale: Match(locale)}
}

// Match maps a locale string such as "zh_CN.UTF-8" to "en" or "zh".
func Match(locale string) string {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	locale = strings.ReplaceAll(locale, "_", "-")
	if locale == "" || locale == "C" || locale == "POSIX" {
		return "en"
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return "en"
	}
	if base, _ := tag.Base(); base.String() == "zh" {
		return "zh"
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return "en"
	}
	base, _ := supported[idx].Base()
	return base.String()
}

func envLocale() string {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Locale returns "en" or "zh".
func (t *Translator) Locale() string {
	return t.locale
}

// T looks up key and substitutes {name} placeholders from vars, given as
// alternating name/value pairs. Unknown placeholders are left as they are.
func (t *Translator) T(key Key, vars ...any) string {
	text, ok := tables[t.locale][key]
	if !ok {
		if text, ok = tables["en"][key]; !ok {
			return string(key)
		}
	}
	if len(vars) < 2 {
		return text
	}
	values := make(map[string]string, len(vars)/2)
	for i := 0; i+1 < len(vars); i += 2 {
		values[fmt.Sprint(vars[i])] = fmt.Sprint(vars[i+1])
	}
	return template.ReplaceAllStringFunc(text, func(m string) string {
		if v, ok := values[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

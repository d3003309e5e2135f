package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/yumi-nakamura/GharProject-sub000/models"
)

// 各分析类型的观察重点清单
var observationChecklists = map[string]string{
	models.OtayoriTypeMeal: `1.食物的分量是否合适
2.是否有食欲不振或进食异常的迹象
3.进食方式是否正常（狼吞虎咽、挑食等）
4.食物的种类和搭配是否合理`,
	models.OtayoriTypePoop: `1.颜色是否正常（健康的颜色为棕色系）
2.形状是否成形
3.分量是否在正常范围
4.软硬程度（过软或过硬都需要注意）`,
	models.OtayoriTypeEmotion: `1.身体姿态是否放松
2.眼神和视线方向
3.耳朵的位置和朝向
4.尾巴的姿态`,
}

var analysisSubjects = map[string]string{
	models.OtayoriTypeMeal:    "饮食照片",
	models.OtayoriTypePoop:    "排泄物照片",
	models.OtayoriTypeEmotion: "宠物状态照片",
}

// BuildAnalysisPrompt 构建指定分析类型的提示词。
// 包含兽医助手的角色设定、类型对应的观察清单、可选的宠物信息，
// 以及两个分支的JSON输出契约：照片内容符合预期时输出完整分析，
// 不符合预期时输出固定的降级对象。不进行任何网络请求。
func BuildAnalysisPrompt(analysisType string, pet *models.PetInfo) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`你是一位经验丰富的宠物医院兽医助手，负责根据照片对宠物的健康状况进行初步评估。
请仔细观察这张%s。

观察重点：
%s
`, analysisSubjects[analysisType], observationChecklists[analysisType]))

	if pet != nil {
		sb.WriteString("\n宠物信息：\n")
		sb.WriteString(formatPetInfo(pet))
	}

	sb.WriteString(fmt.Sprintf(`
输出要求：
1.只输出一个JSON对象，不要输出任何其他文字
2.所有文字内容使用中文
3.评估仅供参考，发现明显异常时在warnings中提醒就医

如果照片内容确实是%s，按以下结构输出：

字段说明：
- health_score: 健康评分，1-10的整数，10为最健康
- confidence: 判断置信度，0.0-1.0的小数
- observations: 观察到的具体情况列表
- recommendations: 建议列表
- warnings: 需要注意的警告列表（没有则为空列表）
- encouragement: 给主人的一句鼓励
- details: 附加观察项，按需填写 color（颜色）、consistency（质地）、amount（分量）、appetite（食欲）、mood（情绪）

完整结构示例：
{
	"health_score": 8,
	"confidence": 0.85,
	"observations": ["颜色正常", "形状良好"],
	"recommendations": ["继续保持当前的饮食习惯"],
	"warnings": [],
	"encouragement": "记录得很认真，继续加油！",
	"details": {
		"color": "棕色",
		"consistency": "适中",
		"amount": "正常"
	}
}

如果照片内容不是%s（拍错了或内容无关），固定输出：
{
	"health_score": 5,
	"confidence": 0.9,
	"observations": [],
	"recommendations": [],
	"warnings": ["照片内容与所选的记录类型不符，请确认后重新拍摄"],
	"encouragement": "",
	"details": {}
}`, analysisSubjects[analysisType], analysisSubjects[analysisType]))

	return sb.String()
}

// formatPetInfo 格式化宠物信息块
func formatPetInfo(pet *models.PetInfo) string {
	var sb strings.Builder
	if pet.Breed != "" {
		sb.WriteString(fmt.Sprintf("- 品种: %s\n", pet.Breed))
	}
	if pet.AgeYears > 0 {
		sb.WriteString(fmt.Sprintf("- 年龄: %d岁\n", pet.AgeYears))
	}
	if pet.WeightKg > 0 {
		sb.WriteString(fmt.Sprintf("- 体重: %.1fkg\n", pet.WeightKg))
	}
	if len(pet.MedicalHistory) > 0 {
		sb.WriteString(fmt.Sprintf("- 病史: %s\n", strings.Join(pet.MedicalHistory, "、")))
	}
	return sb.String()
}

// PetInfoFromProfile 从宠物档案生成提示词用的宠物信息
func PetInfoFromProfile(pet *models.Pet, now time.Time) *models.PetInfo {
	if pet == nil {
		return nil
	}
	return &models.PetInfo{
		Breed:          pet.Breed,
		AgeYears:       pet.AgeYears(now),
		WeightKg:       pet.WeightKg,
		MedicalHistory: pet.MedicalHistoryList(),
	}
}

package prayer

import (
	"fmt"

	"github.com/hray3182/Nuhyi/internal/adhkar"
	"github.com/hray3182/Nuhyi/internal/models"
)

const reminderTitle = "تذكيرة"

func mainNotification(p models.Prayer, settings *models.Settings) models.Notification {
	name := p.ArabicName()
	n := models.Notification{
		Title:  fmt.Sprintf("وقت صلاة %s", name),
		Body:   fmt.Sprintf("حان وقت صلاة %s. تقبل الله منا ومنكم.", name),
		Urgent: true,
		Silent: !settings.AzanSound,
		Prayer: p,
	}
	if settings.AzanSound {
		n.Sound = settings.AzanAudio
	}
	return n
}

func preAlertNotification(p models.Prayer, leadMinutes int) models.Notification {
	name := p.ArabicName()
	return models.Notification{
		Title:  fmt.Sprintf("تذكيرة قبل صلاة %s", name),
		Body:   fmt.Sprintf("سيحين وقت صلاة %s خلال %d دقائق. استعد للصلاة.", name, leadMinutes),
		Prayer: p,
	}
}

func snoozeNotification(p models.Prayer) models.Notification {
	name := p.ArabicName()
	return models.Notification{
		Title:  fmt.Sprintf("وقت صلاة %s", name),
		Body:   fmt.Sprintf("تذكير: لا تنس صلاة %s.", name),
		Urgent: true,
		Prayer: p,
	}
}

func reminderNotification(r *models.Reminder) models.Notification {
	return models.Notification{
		Title:  reminderTitle,
		Body:   r.Text,
		Urgent: true,
	}
}

func salawatNotification(intn func(int) int) models.Notification {
	return models.Notification{
		Title: adhkar.SalawatTitle,
		Body:  adhkar.RandomSalawat(intn),
	}
}

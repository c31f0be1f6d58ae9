package tools

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"nebula/internal/store"
)

var mentionPattern = regexp.MustCompile(`<@!?(\d+)>`)

// extractUserID resolves a Discord mention (<@123> / <@!123>) or a bare
// numeric id. Returns "" when the reference cannot be resolved.
func extractUserID(userMention string) string {
	if match := mentionPattern.FindStringSubmatch(userMention); match != nil {
		return match[1]
	}
	trimmed := strings.TrimSpace(userMention)
	if _, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
		return trimmed
	}
	return ""
}

// resolveTarget runs the shared privilege, resolution and hierarchy
// checkpoints for moderation tools. It returns the resolved member, or a
// non-empty denial/error string when any checkpoint fails.
func (e *Executor) resolveTarget(ctx context.Context, execCtx *ExecutionContext, userMention, verb string) (*Member, string) {
	userID := extractUserID(userMention)
	if userID == "" {
		return nil, fmt.Sprintf("❌ Could not identify user from: %s", userMention)
	}

	member, err := e.discord.FetchMember(ctx, execCtx.GuildID, userID)
	if err != nil {
		return nil, fmt.Sprintf("❌ Could not find user with ID: %s", userID)
	}

	botRank, err := e.discord.BotRank(ctx, execCtx.GuildID)
	if err != nil {
		return nil, fmt.Sprintf("❌ Error checking role hierarchy: %v", err)
	}
	if member.RoleRank >= botRank {
		return nil, fmt.Sprintf("❌ Cannot %s %s - their role is higher than or equal to mine.", verb, member.DisplayName)
	}

	return member, ""
}

func (e *Executor) kickUser(ctx context.Context, execCtx *ExecutionContext, args kickArgs) string {
	if !execCtx.IsAdmin {
		return "❌ You don't have permission to kick users."
	}

	member, denial := e.resolveTarget(ctx, execCtx, args.UserMention, "kick")
	if denial != "" {
		return denial
	}

	if err := e.discord.Kick(ctx, execCtx.GuildID, member.ID, args.Reason); err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			return "❌ I don't have permission to kick this user."
		}
		return fmt.Sprintf("❌ Error kicking user: %v", err)
	}

	e.recordAction(ctx, execCtx, ActionKick, member.ID, member.DisplayName, args.Reason)

	return fmt.Sprintf("✅ Successfully kicked **%s** (ID: %s)\nReason: %s", member.DisplayName, member.ID, args.Reason)
}

func (e *Executor) banUser(ctx context.Context, execCtx *ExecutionContext, args banArgs) string {
	if !execCtx.IsAdmin {
		return "❌ You don't have permission to ban users."
	}

	member, denial := e.resolveTarget(ctx, execCtx, args.UserMention, "ban")
	if denial != "" {
		return denial
	}

	if err := e.discord.Ban(ctx, execCtx.GuildID, member.ID, args.Reason); err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			return "❌ I don't have permission to ban this user."
		}
		return fmt.Sprintf("❌ Error banning user: %v", err)
	}

	e.recordAction(ctx, execCtx, ActionBan, member.ID, member.DisplayName, args.Reason)

	return fmt.Sprintf("✅ Successfully banned **%s** (ID: %s)\nReason: %s", member.DisplayName, member.ID, args.Reason)
}

func (e *Executor) createChannel(ctx context.Context, execCtx *ExecutionContext, args createChannelArgs) string {
	if !execCtx.IsAdmin {
		return "❌ You don't have permission to create channels."
	}

	kind := strings.ToLower(args.ChannelType)
	if kind != "voice" {
		kind = "text"
	}

	ref, err := e.discord.CreateChannel(ctx, execCtx.GuildID, args.ChannelName, args.CategoryName, kind)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return fmt.Sprintf("❌ Could not find category: %s", args.CategoryName)
		}
		if errors.Is(err, ErrPermissionDenied) {
			return "❌ I don't have permission to create channels."
		}
		return fmt.Sprintf("❌ Error creating channel: %v", err)
	}

	details := fmt.Sprintf("Created %s channel: %s", kind, args.ChannelName)
	if args.CategoryName != "" {
		details += fmt.Sprintf(" in category: %s", args.CategoryName)
	}
	e.recordAction(ctx, execCtx, ActionCreateChannel, "", args.ChannelName, details)

	return fmt.Sprintf("✅ Successfully created %s channel: %s", kind, ref)
}

func (e *Executor) userActivity(ctx context.Context, execCtx *ExecutionContext, args activityArgs) string {
	if !execCtx.IsAdmin {
		return "❌ You don't have permission to check user activity."
	}

	userID := extractUserID(args.UserMention)
	if userID == "" {
		return fmt.Sprintf("❌ Could not identify user from: %s", args.UserMention)
	}

	activity, err := e.audit.GetUserActivity(ctx, userID, execCtx.GuildID)
	if err != nil {
		return fmt.Sprintf("❌ Error checking user activity: %v", err)
	}
	if activity == nil {
		return fmt.Sprintf("❌ No activity data found for user ID: %s", userID)
	}

	e.recordAction(ctx, execCtx, ActionActivityCheck, userID, activity.DisplayName, "Checked user activity")

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **Activity Report for %s**\n\n", activity.DisplayName)
	fmt.Fprintf(&b, "👤 **User ID:** %s\n", userID)
	fmt.Fprintf(&b, "📅 **First Seen:** %s\n", activity.FirstSeen.Format(time.RFC1123))
	fmt.Fprintf(&b, "🕐 **Last Seen:** %s\n", activity.LastSeen.Format(time.RFC1123))
	fmt.Fprintf(&b, "💬 **Total Messages:** %d\n", activity.TotalMessages)
	fmt.Fprintf(&b, "📈 **Messages (Last 7 Days):** %d\n", activity.RecentMessages)
	return b.String()
}

// recordAction writes the audit entry for a completed action. Audit
// failures are logged but never turn a completed action into an error.
func (e *Executor) recordAction(ctx context.Context, execCtx *ExecutionContext, actionType, targetID, targetName, details string) {
	err := e.audit.LogAdminAction(ctx, store.AdminAction{
		GuildID:    execCtx.GuildID,
		AdminID:    execCtx.ActorID,
		AdminName:  execCtx.ActorName,
		ActionType: actionType,
		TargetID:   targetID,
		TargetName: targetName,
		Details:    details,
	})
	if err != nil {
		e.logger.Error("Failed to write admin action record",
			zap.String("action", actionType),
			zap.String("guild_id", execCtx.GuildID),
			zap.Error(err),
		)
	}
}
